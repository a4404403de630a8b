package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func reconciled(account, period, typ, debt, paid string) domain.ReconciledCase {
	return domain.NewReconciledCase(domain.DebtRecord{
		AccountID:  account,
		Period:     period,
		DebtType:   typ,
		DebtAmount: dec(debt),
	}, dec(paid))
}

func sampleCases() []domain.ReconciledCase {
	return []domain.ReconciledCase{
		reconciled("A", "202402", "AGUA", "100", "40"),
		reconciled("B", "202401", "LUZ", "200", "200"),
		reconciled("C", "202401", "AGUA", "50", "0"),
		reconciled("D", "202402", "LUZ", "300", "350"),
		reconciled("E", "202403", "AGUA", "0", "0"),
	}
}

func TestByPeriod(t *testing.T) {
	got := ByPeriod(sampleCases())
	require.Len(t, got, 3)

	assert.Equal(t, "202401", got[0].Key)
	assert.Equal(t, 2, got[0].Cases)
	assert.True(t, dec("250").Equal(got[0].Debt))
	assert.True(t, dec("200").Equal(got[0].Paid))
	assert.True(t, dec("50").Equal(got[0].Pending))
	assert.Equal(t, "80", got[0].Effectiveness.String())

	assert.Equal(t, "202402", got[1].Key)
	assert.Equal(t, "97.5", got[1].Effectiveness.String())

	assert.Equal(t, "202403", got[2].Key)
	assert.True(t, got[2].Effectiveness.IsZero())
}

func TestByType(t *testing.T) {
	got := ByType(sampleCases())
	require.Len(t, got, 2)
	assert.Equal(t, "AGUA", got[0].Key)
	assert.Equal(t, 3, got[0].Cases)
	assert.Equal(t, "LUZ", got[1].Key)
	assert.Equal(t, "110", got[1].Effectiveness.String())
}

func TestSummariesConserveTotals(t *testing.T) {
	cases := sampleCases()
	totals := Totals(cases)

	for name, groups := range map[string][]domain.Summary{
		"period": ByPeriod(cases),
		"type":   ByType(cases),
	} {
		t.Run(name, func(t *testing.T) {
			count := 0
			debt, paid, pending := decimal.Zero, decimal.Zero, decimal.Zero
			for _, g := range groups {
				count += g.Cases
				debt = debt.Add(g.Debt)
				paid = paid.Add(g.Paid)
				pending = pending.Add(g.Pending)
			}
			assert.Equal(t, totals.Cases, count)
			assert.True(t, totals.Debt.Equal(debt))
			assert.True(t, totals.Paid.Equal(paid))
			assert.True(t, totals.Pending.Equal(pending))
		})
	}
}

func TestTotals(t *testing.T) {
	got := Totals(sampleCases())
	assert.Equal(t, 5, got.Cases)
	assert.Equal(t, 3, got.PaidCases)
	assert.Equal(t, 2, got.PendingCases)
	assert.Equal(t, 3, got.Periods)
	assert.True(t, dec("650").Equal(got.Debt))
	assert.True(t, dec("590").Equal(got.Paid))
	assert.True(t, dec("110").Equal(got.Pending))
	assert.Equal(t, "90.8", got.Effectiveness.String())
}

func TestTotalsEmpty(t *testing.T) {
	got := Totals(nil)
	assert.Zero(t, got.Cases)
	assert.True(t, got.Effectiveness.IsZero())
}

func TestApply(t *testing.T) {
	cases := sampleCases()

	assert.Len(t, Apply(cases, domain.Filter{}), 5)
	assert.Len(t, Apply(cases, domain.Filter{Period: "202401"}), 2)
	assert.Len(t, Apply(cases, domain.Filter{DebtType: "AGUA", Status: domain.StatusPending}), 2)
	assert.Empty(t, Apply(cases, domain.Filter{Period: "209912"}))

	filtered := Apply(cases, domain.Filter{Status: domain.StatusPaid})
	filtered[0].AccountID = "changed"
	assert.Equal(t, "B", cases[1].AccountID)
}

func TestFacetsOf(t *testing.T) {
	got := FacetsOf(sampleCases())
	assert.Equal(t, []string{"202401", "202402", "202403"}, got.Periods)
	assert.Equal(t, []string{"AGUA", "LUZ"}, got.Types)
	assert.Equal(t, []domain.Status{domain.StatusPaid, domain.StatusPending}, got.Statuses)
}

func TestTopPending(t *testing.T) {
	cases := []domain.ReconciledCase{
		reconciled("A", "P1", "T", "100", "0"),
		reconciled("B", "P1", "T", "500", "500"),
		reconciled("C", "P1", "T", "300", "0"),
		reconciled("D", "P1", "T", "100", "0"),
		reconciled("E", "P1", "T", "300", "0"),
	}

	got := TopPending(cases, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0].AccountID)
	assert.Equal(t, "E", got[1].AccountID)
	assert.Equal(t, "A", got[2].AccountID)

	all := TopPending(cases, 20)
	assert.Len(t, all, 4)
	assert.Equal(t, "D", all[3].AccountID)

	assert.Empty(t, TopPending(cases, 0))
	assert.Empty(t, TopPending(nil, 10))
}

func TestPartition(t *testing.T) {
	rows := []int{0, 1, 2, 3, 4, 5, 6}

	got, err := Partition(rows, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 2}, got[0])
	assert.Equal(t, []int{3, 4, 5}, got[1])
	assert.Equal(t, []int{6}, got[2])
}

func TestPartitionEvenSplitLeavesEmptyTail(t *testing.T) {
	rows := []string{"a", "b", "c", "d", "e", "f"}

	got, err := Partition(rows, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 3)
	assert.Len(t, got[1], 3)
	assert.Empty(t, got[2])
}

func TestPartitionEdges(t *testing.T) {
	got, err := Partition([]int{1, 2}, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, []int{1}, got[0])
	assert.Equal(t, []int{2}, got[1])
	assert.Empty(t, got[4])

	got, err = Partition([]int(nil), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = Partition([]int{1, 2, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2, 3}}, got)

	_, err = Partition([]int{1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidChunkCount)
}

func TestByClassification(t *testing.T) {
	profiles := []domain.ContactProfile{
		{Profile: domain.AccountProfile{Classification: domain.ClassificationFullyDelinquent, TotalDebt: dec("300"), PendingBalance: dec("300")}},
		{Profile: domain.AccountProfile{Classification: domain.ClassificationFullyDelinquent, TotalDebt: dec("100"), PendingBalance: dec("100")}},
		{Profile: domain.AccountProfile{Classification: domain.ClassificationNoDebt}},
	}

	got := ByClassification(profiles)
	require.Len(t, got, 4)
	assert.Equal(t, domain.ClassificationNoDebt, got[0].Classification)
	assert.Equal(t, 1, got[0].Accounts)
	assert.Equal(t, 0, got[1].Accounts)
	assert.Equal(t, 2, got[2].Accounts)
	assert.True(t, dec("400").Equal(got[2].Pending))
	assert.Equal(t, domain.ClassificationPartialPayer, got[3].Classification)
}
