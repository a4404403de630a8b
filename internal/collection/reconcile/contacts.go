package reconcile

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// ContactList keeps the subscribers who still owe money and pass filter.
//
// A subscriber owes when its total paid is below its stated amount. Without a
// stated amount the account's total debt is the threshold, so subscribers with
// neither are dropped.
func ContactList(profiles []domain.ContactProfile, filter domain.ContactFilter) []domain.ContactRow {
	rows := make([]domain.ContactRow, 0, len(profiles))
	for _, cp := range profiles {
		amount, ok := contactAmount(cp)
		if !ok || !cp.Profile.TotalPaid.LessThan(amount) {
			continue
		}
		if !filter.Allows(cp.Profile.Classification) {
			continue
		}
		rows = append(rows, domain.ContactRow{
			Phone:          cp.Subscriber.Phone,
			Name:           cp.Subscriber.Name,
			ReferenceDate:  cp.Subscriber.ReferenceDate,
			AccountID:      cp.Subscriber.AccountID,
			Amount:         amount,
			DebtType:       cp.Profile.DebtType,
			Classification: cp.Profile.Classification,
			TotalPaid:      cp.Profile.TotalPaid,
			PendingBalance: cp.Profile.PendingBalance,
		})
	}
	return rows
}

func contactAmount(cp domain.ContactProfile) (decimal.Decimal, bool) {
	if cp.Subscriber.HasStatedAmount {
		return cp.Subscriber.StatedAmount, true
	}
	if cp.Profile.PeriodsOwed > 0 {
		return cp.Profile.TotalDebt, true
	}
	return decimal.Zero, false
}
