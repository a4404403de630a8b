package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDebtBaseMissing         = errors.New("debt_base_missing")
	ErrNoResult                = errors.New("no_result")
	ErrStaleDebtBase           = errors.New("stale_debt_base")
	ErrPaymentModeMismatch     = errors.New("payment_mode_mismatch")
	ErrInvalidChunkCount       = errors.New("invalid_chunk_count")
	ErrInvalidClassification   = errors.New("invalid_classification")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidSplit            = errors.New("invalid_split")
	ErrEmptyExport             = errors.New("empty_export")
	ErrUnsupportedFormat       = errors.New("unsupported_format")
	ErrEmptySheet              = errors.New("empty_sheet")
	ErrUnreadableSpreadsheet   = errors.New("unreadable_spreadsheet")
	ErrUploadTooLarge          = errors.New("upload_too_large")
	ErrMissingUpload           = errors.New("missing_upload")
	ErrInvalidTopN             = errors.New("invalid_top_n")
	ErrInvalidExportPrefix     = errors.New("invalid_export_prefix")
	ErrWorkspaceNotFound       = errors.New("workspace_not_found")
	ErrUnsupportedReportFormat = errors.New("unsupported_report_format")
)

// SchemaError reports required fields that are absent after header normalization.
type SchemaError struct {
	Kind     TableKind `json:"kind"`
	Required []Field   `json:"required"`
	Found    []string  `json:"found"`
	Missing  []Field   `json:"missing"`
}

func (e *SchemaError) Error() string {
	missing := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		missing = append(missing, string(f))
	}
	return fmt.Sprintf("%s: missing required fields [%s]; found [%s]",
		e.Kind,
		strings.Join(missing, ", "),
		strings.Join(e.Found, ", "),
	)
}

// AsSchemaError unwraps err into a *SchemaError when it is one.
func AsSchemaError(err error) (*SchemaError, bool) {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr, true
	}
	return nil, false
}

// WarningCode classifies a non-fatal normalization event.
type WarningCode string

const (
	// WarningCoercionDefault marks a monetary cell that could not be parsed and became 0.
	WarningCoercionDefault WarningCode = "coercion_default"
	// WarningSignCorrected marks a negative monetary cell that was flipped to positive.
	WarningSignCorrected WarningCode = "sign_corrected"
	// WarningEmptyResult marks an export or pending list with nothing in it.
	WarningEmptyResult WarningCode = "empty_result"
)

// Warning is a caller-visible note attached to a normalized table. Line is the
// 1-based source line, the header being line 1.
type Warning struct {
	Code  WarningCode `json:"code"`
	Kind  TableKind   `json:"kind"`
	Field Field       `json:"field,omitempty"`
	Line  int         `json:"line,omitempty"`
	Raw   string      `json:"raw,omitempty"`
}

// WarningSummary counts warnings sharing a code and field.
type WarningSummary struct {
	Code  WarningCode `json:"code"`
	Kind  TableKind   `json:"kind"`
	Field Field       `json:"field,omitempty"`
	Count int         `json:"count"`
}

// SummarizeWarnings collapses warnings by kind, code and field.
func SummarizeWarnings(warnings []Warning) []WarningSummary {
	type key struct {
		kind  TableKind
		code  WarningCode
		field Field
	}
	counts := make(map[key]int)
	for _, w := range warnings {
		counts[key{kind: w.Kind, code: w.Code, field: w.Field}]++
	}
	out := make([]WarningSummary, 0, len(counts))
	for k, n := range counts {
		out = append(out, WarningSummary{Code: k.code, Kind: k.kind, Field: k.field, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Field < out[j].Field
	})
	return out
}
