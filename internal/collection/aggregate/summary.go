package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// effectivenessPlaces is the rounding applied to every effectiveness ratio.
const effectivenessPlaces = 1

type bucket struct {
	cases   int
	debt    decimal.Decimal
	paid    decimal.Decimal
	pending decimal.Decimal
}

func (b *bucket) add(c domain.ReconciledCase) {
	b.cases++
	b.debt = b.debt.Add(c.DebtAmount)
	b.paid = b.paid.Add(c.TotalPaid)
	b.pending = b.pending.Add(c.PendingBalance)
}

func groupBy(cases []domain.ReconciledCase, key func(domain.ReconciledCase) string) []domain.Summary {
	buckets := make(map[string]*bucket)
	for _, c := range cases {
		k := key(c)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.add(c)
	}

	out := make([]domain.Summary, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, domain.Summary{
			Key:           k,
			Cases:         b.cases,
			Debt:          b.debt,
			Paid:          b.paid,
			Pending:       b.pending,
			Effectiveness: domain.Ratio(b.paid, b.debt, effectivenessPlaces),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByPeriod groups cases by period in ascending key order.
func ByPeriod(cases []domain.ReconciledCase) []domain.Summary {
	return groupBy(cases, func(c domain.ReconciledCase) string { return c.Period })
}

// ByType groups cases by debt type in ascending key order.
func ByType(cases []domain.ReconciledCase) []domain.Summary {
	return groupBy(cases, func(c domain.ReconciledCase) string { return c.DebtType })
}

// Totals computes the headline figures over cases.
func Totals(cases []domain.ReconciledCase) domain.Totals {
	var b bucket
	paidCases := 0
	periods := make(map[string]struct{})
	for _, c := range cases {
		b.add(c)
		if c.Status == domain.StatusPaid {
			paidCases++
		}
		periods[c.Period] = struct{}{}
	}
	return domain.Totals{
		Cases:         b.cases,
		PaidCases:     paidCases,
		PendingCases:  b.cases - paidCases,
		Periods:       len(periods),
		Debt:          b.debt,
		Paid:          b.paid,
		Pending:       b.pending,
		Effectiveness: domain.Ratio(b.paid, b.debt, effectivenessPlaces),
	}
}

// ByClassification counts profiles per classification. Every classification is
// present, in evaluation order, even when empty.
func ByClassification(profiles []domain.ContactProfile) []domain.ClassificationSummary {
	index := make(map[domain.Classification]int, len(domain.Classifications))
	out := make([]domain.ClassificationSummary, len(domain.Classifications))
	for i, c := range domain.Classifications {
		index[c] = i
		out[i] = domain.ClassificationSummary{Classification: c}
	}
	for _, p := range profiles {
		i, ok := index[p.Profile.Classification]
		if !ok {
			continue
		}
		s := &out[i]
		s.Accounts++
		s.Debt = s.Debt.Add(p.Profile.TotalDebt)
		s.Paid = s.Paid.Add(p.Profile.TotalPaid)
		s.Pending = s.Pending.Add(p.Profile.PendingBalance)
	}
	return out
}
