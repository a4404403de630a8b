package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the state a caller retains between reconciliation calls.
// Implementations must leave retained state untouched when a call fails.
type Session interface {
	// LoadDebts replaces the debt base under a new generation and drops any result.
	LoadDebts(DebtTable)
	Debts() (DebtTable, bool)
	// StoreResult keeps r only while the base of generation base is still loaded,
	// otherwise it returns ErrStaleDebtBase.
	StoreResult(base uint64, r CrossCheckResult) error
	Result() (CrossCheckResult, bool)
	Clear()
}

type DebtBaseSummary struct {
	Records  int              `json:"records"`
	Total    decimal.Decimal  `json:"total"`
	Periods  int              `json:"periods"`
	Accounts int              `json:"accounts"`
	Warnings []WarningSummary `json:"warnings,omitempty"`
}

type CrossCheckReport struct {
	RunID      string           `json:"run_id"`
	Payments   int              `json:"payments"`
	Totals     Totals           `json:"totals"`
	Warnings   []WarningSummary `json:"warnings,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}

type ReportRequest struct {
	Filter Filter
	TopN   int
}

// DashboardReport is the dashboard view of the stored result. Top holds the
// dashboard top list; Highlights is the shorter list used by the printed summary.
type DashboardReport struct {
	RunID           string           `json:"run_id"`
	Totals          Totals           `json:"totals"`
	Filtered        Totals           `json:"filtered"`
	Filter          Filter           `json:"filter"`
	Facets          Facets           `json:"facets"`
	ByPeriod        []Summary        `json:"by_period"`
	ByType          []Summary        `json:"by_type"`
	Top             []ReconciledCase `json:"top"`
	TopTotal        decimal.Decimal  `json:"top_total"`
	Highlights      []ReconciledCase `json:"highlights"`
	HighlightsTotal decimal.Decimal  `json:"highlights_total"`
	Detail          []ReconciledCase `json:"detail"`
	EmptyTop        bool             `json:"empty_top"`
	Generated       time.Time        `json:"generated_at"`
}

// ContactRequest carries the raw tables of a contact-list run. Debts is optional.
type ContactRequest struct {
	Subscribers Table
	Payments    Table
	Debts       *Table
	Filter      ContactFilter
}

type ContactReport struct {
	Rows            []ContactRow            `json:"rows"`
	Subscribers     int                     `json:"subscribers"`
	Classifications []ClassificationSummary `json:"classifications"`
	Warnings        []WarningSummary        `json:"warnings,omitempty"`
}

// SplitBy selects how an export is grouped into categories before partitioning.
type SplitBy string

const (
	SplitNone           SplitBy = ""
	SplitClassification SplitBy = "classification"
	SplitType           SplitBy = "type"
)

// ParseSplitBy validates a split option.
func ParseSplitBy(raw string) (SplitBy, error) {
	switch SplitBy(raw) {
	case SplitNone, SplitClassification, SplitType:
		return SplitBy(raw), nil
	default:
		return "", ErrInvalidSplit
	}
}

type ExportRequest struct {
	Parts   int
	Prefix  string
	SplitBy SplitBy
}

type ExportBundle struct {
	Files []ExportFile `json:"files"`
	Rows  int          `json:"rows"`
}

// ReportFormat is a downloadable rendering of a DashboardReport.
type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ParseReportFormat validates a report download format.
func ParseReportFormat(raw string) (ReportFormat, error) {
	switch ReportFormat(raw) {
	case ReportFormatXLSX, ReportFormatPDF:
		return ReportFormat(raw), nil
	default:
		return "", ErrUnsupportedReportFormat
	}
}

type Service interface {
	LoadDebtBase(ctx context.Context, session Session, raw Table) (DebtBaseSummary, error)
	DebtBase(ctx context.Context, session Session) (DebtBaseSummary, error)
	ReplaceDebtBase(ctx context.Context, session Session)
	CrossCheck(ctx context.Context, session Session, raw Table) (CrossCheckReport, error)
	Report(ctx context.Context, session Session, req ReportRequest) (DashboardReport, error)
	ReportDocument(ctx context.Context, session Session, req ReportRequest, format ReportFormat) (ExportFile, error)
	Contacts(ctx context.Context, req ContactRequest) (ContactReport, error)
	ExportContacts(ctx context.Context, req ContactRequest, export ExportRequest) (ExportBundle, error)
}
