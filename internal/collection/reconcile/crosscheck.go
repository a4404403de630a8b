package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/aggregate"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

type caseKey struct {
	account string
	period  string
}

// CrossCheck joins every debt row with the sum of the payments made against the
// same (account, period). Debt rows keep their input order; rows without
// payments get a total paid of 0.
func CrossCheck(debts domain.DebtTable, payments domain.PaymentTable) (domain.CrossCheckResult, error) {
	if payments.Mode != "" && payments.Mode != domain.PaymentModePeriod {
		return domain.CrossCheckResult{}, fmt.Errorf("cross-check requires %s payments, got %s: %w",
			domain.PaymentModePeriod, payments.Mode, domain.ErrPaymentModeMismatch)
	}

	paid := make(map[caseKey]decimal.Decimal, len(payments.Records))
	for _, p := range payments.Records {
		k := caseKey{account: p.AccountID, period: p.Period}
		paid[k] = paid[k].Add(p.Amount)
	}

	cases := make([]domain.ReconciledCase, 0, len(debts.Records))
	for _, d := range debts.Records {
		total, ok := paid[caseKey{account: d.AccountID, period: d.Period}]
		if !ok {
			total = decimal.Zero
		}
		cases = append(cases, domain.NewReconciledCase(d, total))
	}

	return domain.CrossCheckResult{
		Cases:  cases,
		Totals: aggregate.Totals(cases),
	}, nil
}
