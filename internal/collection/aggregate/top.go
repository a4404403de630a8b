package aggregate

import (
	"sort"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// TopPending returns up to n PENDING cases with the largest pending balance.
// Ties keep their input order.
func TopPending(cases []domain.ReconciledCase, n int) []domain.ReconciledCase {
	if n <= 0 {
		return []domain.ReconciledCase{}
	}
	pending := make([]domain.ReconciledCase, 0, len(cases))
	for _, c := range cases {
		if c.Status == domain.StatusPending {
			pending = append(pending, c)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PendingBalance.GreaterThan(pending[j].PendingBalance)
	})
	if len(pending) > n {
		pending = pending[:n]
	}
	return pending
}
