package aggregate

import (
	"sort"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// Apply returns the cases matching every non-empty field of f.
func Apply(cases []domain.ReconciledCase, f domain.Filter) []domain.ReconciledCase {
	out := make([]domain.ReconciledCase, 0, len(cases))
	for _, c := range cases {
		if f.Period != "" && c.Period != f.Period {
			continue
		}
		if f.DebtType != "" && c.DebtType != f.DebtType {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FacetsOf lists the distinct periods, types and statuses present in cases.
func FacetsOf(cases []domain.ReconciledCase) domain.Facets {
	periods := make(map[string]struct{})
	types := make(map[string]struct{})
	statuses := make(map[domain.Status]struct{})
	for _, c := range cases {
		periods[c.Period] = struct{}{}
		types[c.DebtType] = struct{}{}
		statuses[c.Status] = struct{}{}
	}

	facets := domain.Facets{
		Periods:  sortedKeys(periods),
		Types:    sortedKeys(types),
		Statuses: make([]domain.Status, 0, len(statuses)),
	}
	for _, s := range []domain.Status{domain.StatusPaid, domain.StatusPending} {
		if _, ok := statuses[s]; ok {
			facets.Statuses = append(facets.Statuses, s)
		}
	}
	return facets
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
