package reconcile

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

type debtGroup struct {
	periods  int
	total    decimal.Decimal
	debtType string
}

type paymentGroup struct {
	periods map[string]struct{}
	total   decimal.Decimal
}

// groupDebts sums debts per account. The representative type is the first one
// seen for the account.
func groupDebts(debts []domain.DebtRecord) map[string]*debtGroup {
	groups := make(map[string]*debtGroup)
	for _, d := range debts {
		g, ok := groups[d.AccountID]
		if !ok {
			g = &debtGroup{debtType: d.DebtType}
			groups[d.AccountID] = g
		}
		g.periods++
		g.total = g.total.Add(d.DebtAmount)
	}
	return groups
}

// groupPayments sums payments per account and counts distinct payment periods.
// Rows without a period all count as one shared period.
func groupPayments(payments []domain.PaymentRecord) map[string]*paymentGroup {
	groups := make(map[string]*paymentGroup)
	for _, p := range payments {
		g, ok := groups[p.AccountID]
		if !ok {
			g = &paymentGroup{periods: make(map[string]struct{})}
			groups[p.AccountID] = g
		}
		g.periods[p.Period] = struct{}{}
		g.total = g.total.Add(p.Amount)
	}
	return groups
}

// Profiles builds one AccountProfile per account id in accounts, in that order.
// Accounts missing from debts or payments get zero counts and sums.
func Profiles(debts []domain.DebtRecord, payments []domain.PaymentRecord, accounts []string) []domain.AccountProfile {
	debtGroups := groupDebts(debts)
	paymentGroups := groupPayments(payments)

	out := make([]domain.AccountProfile, 0, len(accounts))
	for _, id := range accounts {
		p := domain.AccountProfile{
			AccountID: id,
			TotalDebt: decimal.Zero,
			TotalPaid: decimal.Zero,
		}
		if d, ok := debtGroups[id]; ok {
			p.PeriodsOwed = d.periods
			p.TotalDebt = d.total
			p.DebtType = d.debtType
		}
		if pg, ok := paymentGroups[id]; ok {
			p.PeriodsPaid = len(pg.periods)
			p.TotalPaid = pg.total
		}
		p.PendingBalance = domain.PendingBalance(p.TotalDebt, p.TotalPaid)
		p.Classification = domain.Classify(p)
		out = append(out, p)
	}
	return out
}

// Classify profiles every subscriber against the account-level debt and
// payment groups. Subscribers keep their input order.
func Classify(debts domain.DebtTable, payments domain.PaymentTable, subscribers domain.SubscriberTable) []domain.ContactProfile {
	accounts := make([]string, 0, len(subscribers.Records))
	for _, s := range subscribers.Records {
		accounts = append(accounts, s.AccountID)
	}

	profiles := Profiles(debts.Records, payments.Records, accounts)
	out := make([]domain.ContactProfile, 0, len(profiles))
	for i, s := range subscribers.Records {
		out = append(out, domain.ContactProfile{Subscriber: s, Profile: profiles[i]})
	}
	return out
}
