package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Status is the settlement state of a single (account, period) case.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusPending Status = "PENDING"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusPending
}

// PaymentMode selects how payment rows are keyed.
type PaymentMode string

const (
	// PaymentModePeriod keys payments by (account_id, period).
	PaymentModePeriod PaymentMode = "period"
	// PaymentModeAccount keys payments by account_id only.
	PaymentModeAccount PaymentMode = "account"
)

// DebtRecord is one row of the debt ledger.
type DebtRecord struct {
	AccountID  string          `json:"account_id"`
	Period     string          `json:"period"`
	DebtAmount decimal.Decimal `json:"debt_amount"`
	DebtType   string          `json:"debt_type"`
}

// PaymentRecord is one row of the payments ledger. Period is empty in account mode.
type PaymentRecord struct {
	AccountID string          `json:"account_id"`
	Period    string          `json:"period,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
}

// SubscriberRecord is a contact target.
type SubscriberRecord struct {
	AccountID       string          `json:"account_id"`
	Phone           string          `json:"phone"`
	Name            string          `json:"name"`
	ReferenceDate   string          `json:"reference_date"`
	StatedAmount    decimal.Decimal `json:"stated_amount"`
	HasStatedAmount bool            `json:"has_stated_amount"`
}

// DebtTable is the normalized debt ledger together with the warnings raised while cleaning it.
type DebtTable struct {
	Records  []DebtRecord `json:"records"`
	Warnings []Warning    `json:"warnings,omitempty"`

	// Generation identifies the load that put the table into a Session.
	Generation uint64 `json:"-"`
}

// PaymentTable is the normalized payments ledger.
type PaymentTable struct {
	Mode     PaymentMode     `json:"mode"`
	Records  []PaymentRecord `json:"records"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

// SubscriberTable is the normalized subscriber base.
type SubscriberTable struct {
	Records  []SubscriberRecord `json:"records"`
	Warnings []Warning          `json:"warnings,omitempty"`
}

// ReconciledCase is a debt row joined with the payments made against it.
type ReconciledCase struct {
	AccountID      string          `json:"account_id"`
	Period         string          `json:"period"`
	DebtType       string          `json:"debt_type"`
	DebtAmount     decimal.Decimal `json:"debt_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	Status         Status          `json:"status"`
	PaidPercentage decimal.Decimal `json:"paid_percentage"`
}

// NewReconciledCase derives the balance fields of a debt row given what was paid against it.
func NewReconciledCase(debt DebtRecord, totalPaid decimal.Decimal) ReconciledCase {
	status := StatusPending
	if totalPaid.GreaterThanOrEqual(debt.DebtAmount) {
		status = StatusPaid
	}
	return ReconciledCase{
		AccountID:      debt.AccountID,
		Period:         debt.Period,
		DebtType:       debt.DebtType,
		DebtAmount:     debt.DebtAmount,
		TotalPaid:      totalPaid,
		PendingBalance: PendingBalance(debt.DebtAmount, totalPaid),
		Status:         status,
		PaidPercentage: PaidPercentage(debt.DebtAmount, totalPaid),
	}
}

// PendingBalance returns max(0, debt - paid).
func PendingBalance(debt, paid decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, debt.Sub(paid))
}

// PaidPercentage returns paid/debt*100 rounded to two places and clamped to [0, 100].
// A zero debt yields 0.
func PaidPercentage(debt, paid decimal.Decimal) decimal.Decimal {
	if !debt.IsPositive() {
		return decimal.Zero
	}
	pct := paid.Div(debt).Mul(hundred).Round(2)
	return decimal.Min(hundred, decimal.Max(decimal.Zero, pct))
}

// Ratio returns part/whole*100 rounded to places, or 0 when whole is not positive.
func Ratio(part, whole decimal.Decimal, places int32) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(places)
}

// AccountProfile aggregates one account across all of its periods.
type AccountProfile struct {
	AccountID      string          `json:"account_id"`
	DebtType       string          `json:"debt_type,omitempty"`
	PeriodsOwed    int             `json:"periods_owed"`
	PeriodsPaid    int             `json:"periods_paid"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	Classification Classification  `json:"classification"`
}

// ContactProfile is an AccountProfile joined onto the subscriber it belongs to.
type ContactProfile struct {
	Subscriber SubscriberRecord `json:"subscriber"`
	Profile    AccountProfile   `json:"profile"`
}

// ContactRow is one line of a contact list export.
type ContactRow struct {
	Phone          string          `json:"phone"`
	Name           string          `json:"name"`
	ReferenceDate  string          `json:"reference_date"`
	AccountID      string          `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	DebtType       string          `json:"debt_type,omitempty"`
	Classification Classification  `json:"classification"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
}

// ContactFilter narrows a contact list. Empty means every classification.
type ContactFilter struct {
	Classifications []Classification
}

// Allows reports whether c passes the filter.
func (f ContactFilter) Allows(c Classification) bool {
	if len(f.Classifications) == 0 {
		return true
	}
	for _, allowed := range f.Classifications {
		if allowed == c {
			return true
		}
	}
	return false
}

// Summary is one group of a by-period or by-type breakdown.
type Summary struct {
	Key           string          `json:"key"`
	Cases         int             `json:"cases"`
	Debt          decimal.Decimal `json:"debt"`
	Paid          decimal.Decimal `json:"paid"`
	Pending       decimal.Decimal `json:"pending"`
	Effectiveness decimal.Decimal `json:"effectiveness"`
}

// Totals are the headline figures of a reconciliation.
type Totals struct {
	Cases         int             `json:"cases"`
	PaidCases     int             `json:"paid_cases"`
	PendingCases  int             `json:"pending_cases"`
	Periods       int             `json:"periods"`
	Debt          decimal.Decimal `json:"debt"`
	Paid          decimal.Decimal `json:"paid"`
	Pending       decimal.Decimal `json:"pending"`
	Effectiveness decimal.Decimal `json:"effectiveness"`
}

// ClassificationSummary counts the accounts that fell into one classification.
type ClassificationSummary struct {
	Classification Classification  `json:"classification"`
	Accounts       int             `json:"accounts"`
	Debt           decimal.Decimal `json:"debt"`
	Paid           decimal.Decimal `json:"paid"`
	Pending        decimal.Decimal `json:"pending"`
}

// CrossCheckResult is the output of a period-level reconciliation.
type CrossCheckResult struct {
	RunID  string           `json:"run_id"`
	Cases  []ReconciledCase `json:"cases"`
	Totals Totals           `json:"totals"`
}

// Filter selects reconciled cases. Empty fields match everything.
type Filter struct {
	Period   string `json:"period,omitempty"`
	DebtType string `json:"debt_type,omitempty"`
	Status   Status `json:"status,omitempty"`
}

// Facets lists the distinct values available to a Filter.
type Facets struct {
	Periods  []string `json:"periods"`
	Types    []string `json:"types"`
	Statuses []Status `json:"statuses"`
}

// ExportFile is one generated download.
type ExportFile struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Data []byte `json:"-"`
}
