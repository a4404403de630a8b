package normalize

import (
	"strings"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// DefaultAliases maps each canonical field to the normalized headers accepted for it,
// in priority order.
var DefaultAliases = map[domain.Field][]string{
	domain.FieldAccountID:     {"ID_COBRANZA", "ACCOUNT_ID", "CODIGO"},
	domain.FieldPeriod:        {"PERIODO", "PERIOD"},
	domain.FieldDebtAmount:    {"DEUDA", "DEBT_AMOUNT"},
	domain.FieldDebtType:      {"TIPO", "DEBT_TYPE"},
	domain.FieldAmount:        {"IMPORTE", "AMOUNT"},
	domain.FieldPhone:         {"NUMERO", "PHONE"},
	domain.FieldName:          {"NOMBRE", "NAME"},
	domain.FieldReferenceDate: {"FECHA", "REFERENCE_DATE"},
	domain.FieldStatedAmount:  {"MONTO", "STATED_AMOUNT"},
}

var (
	debtFields           = []domain.Field{domain.FieldAccountID, domain.FieldPeriod, domain.FieldDebtAmount, domain.FieldDebtType}
	periodPaymentFields  = []domain.Field{domain.FieldAccountID, domain.FieldPeriod, domain.FieldAmount}
	accountPaymentFields = []domain.Field{domain.FieldAccountID, domain.FieldAmount}
	subscriberFields     = []domain.Field{domain.FieldAccountID, domain.FieldPhone, domain.FieldName, domain.FieldReferenceDate}
)

// RequiredFields returns the canonical fields a table kind must carry.
func RequiredFields(kind domain.TableKind, mode domain.PaymentMode) []domain.Field {
	switch kind {
	case domain.TableKindDebts:
		return debtFields
	case domain.TableKindPayments:
		if mode == domain.PaymentModeAccount {
			return accountPaymentFields
		}
		return periodPaymentFields
	case domain.TableKindSubscribers:
		return subscriberFields
	default:
		return nil
	}
}

// Normalizer turns raw tables into typed record tables.
type Normalizer struct {
	aliases map[domain.Field][]string
}

type Option func(*Normalizer)

// WithAliases appends extra accepted headers per field. Extra headers are
// normalized and tried after the defaults.
func WithAliases(extra map[domain.Field][]string) Option {
	return func(n *Normalizer) {
		for field, headers := range extra {
			for _, h := range headers {
				h = NormalizeHeader(h)
				if h == "" {
					continue
				}
				n.aliases[field] = append(n.aliases[field], h)
			}
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{aliases: make(map[domain.Field][]string, len(DefaultAliases))}
	for field, headers := range DefaultAliases {
		n.aliases[field] = append([]string(nil), headers...)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// columns maps a canonical field to its column index in a table.
type columns map[domain.Field]int

func (c columns) has(f domain.Field) bool {
	_, ok := c[f]
	return ok
}

// resolve finds each canonical field among the table headers and fails with a
// SchemaError when a required one is absent.
func (n *Normalizer) resolve(t domain.Table, kind domain.TableKind, required []domain.Field) (columns, error) {
	index := make(map[string]int, len(t.Headers))
	found := make([]string, 0, len(t.Headers))
	for i, h := range t.Headers {
		name := NormalizeHeader(h)
		if name == "" {
			continue
		}
		found = append(found, name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	cols := make(columns, len(n.aliases))
	for field, headers := range n.aliases {
		for _, h := range headers {
			if i, ok := index[h]; ok {
				cols[field] = i
				break
			}
		}
	}

	var missing []domain.Field
	for _, f := range required {
		if !cols.has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{
			Kind:     kind,
			Required: append([]domain.Field(nil), required...),
			Found:    found,
			Missing:  missing,
		}
	}
	return cols, nil
}

type rowReader struct {
	table    domain.Table
	cols     columns
	kind     domain.TableKind
	warnings []domain.Warning
}

func (r *rowReader) key(row int, f domain.Field) string {
	return NormalizeKey(r.table.Cell(row, r.cols[f]))
}

func (r *rowReader) text(row int, f domain.Field) string {
	col, ok := r.cols[f]
	if !ok {
		return ""
	}
	return strings.TrimSpace(r.table.Cell(row, col))
}

func (r *rowReader) amount(row int, f domain.Field) CoercedAmount {
	raw := r.table.Cell(row, r.cols[f])
	coerced := ParseAmount(raw)
	line := row + 2
	if coerced.Defaulted {
		r.warnings = append(r.warnings, domain.Warning{
			Code:  domain.WarningCoercionDefault,
			Kind:  r.kind,
			Field: f,
			Line:  line,
			Raw:   raw,
		})
	}
	if coerced.Negated {
		r.warnings = append(r.warnings, domain.Warning{
			Code:  domain.WarningSignCorrected,
			Kind:  r.kind,
			Field: f,
			Line:  line,
			Raw:   raw,
		})
	}
	return coerced
}

// Debts normalizes a debt ledger. Duplicate (account, period) rows are kept.
func (n *Normalizer) Debts(t domain.Table) (domain.DebtTable, error) {
	cols, err := n.resolve(t, domain.TableKindDebts, RequiredFields(domain.TableKindDebts, ""))
	if err != nil {
		return domain.DebtTable{}, err
	}

	r := &rowReader{table: t, cols: cols, kind: domain.TableKindDebts}
	records := make([]domain.DebtRecord, 0, t.Len())
	for i := range t.Rows {
		records = append(records, domain.DebtRecord{
			AccountID:  r.key(i, domain.FieldAccountID),
			Period:     r.key(i, domain.FieldPeriod),
			DebtAmount: r.amount(i, domain.FieldDebtAmount).Value,
			DebtType:   r.text(i, domain.FieldDebtType),
		})
	}
	return domain.DebtTable{Records: records, Warnings: r.warnings}, nil
}

// Payments normalizes a payments ledger. In account mode the period column is
// optional and read when present.
func (n *Normalizer) Payments(t domain.Table, mode domain.PaymentMode) (domain.PaymentTable, error) {
	if mode == "" {
		mode = domain.PaymentModePeriod
	}
	cols, err := n.resolve(t, domain.TableKindPayments, RequiredFields(domain.TableKindPayments, mode))
	if err != nil {
		return domain.PaymentTable{}, err
	}

	r := &rowReader{table: t, cols: cols, kind: domain.TableKindPayments}
	withPeriod := cols.has(domain.FieldPeriod)
	records := make([]domain.PaymentRecord, 0, t.Len())
	for i := range t.Rows {
		rec := domain.PaymentRecord{
			AccountID: r.key(i, domain.FieldAccountID),
			Amount:    r.amount(i, domain.FieldAmount).Value,
		}
		if withPeriod {
			rec.Period = r.key(i, domain.FieldPeriod)
		}
		records = append(records, rec)
	}
	return domain.PaymentTable{Mode: mode, Records: records, Warnings: r.warnings}, nil
}

// Subscribers normalizes a subscriber base. stated_amount is optional.
func (n *Normalizer) Subscribers(t domain.Table) (domain.SubscriberTable, error) {
	cols, err := n.resolve(t, domain.TableKindSubscribers, RequiredFields(domain.TableKindSubscribers, ""))
	if err != nil {
		return domain.SubscriberTable{}, err
	}

	r := &rowReader{table: t, cols: cols, kind: domain.TableKindSubscribers}
	withStated := cols.has(domain.FieldStatedAmount)
	records := make([]domain.SubscriberRecord, 0, t.Len())
	for i := range t.Rows {
		rec := domain.SubscriberRecord{
			AccountID:     r.key(i, domain.FieldAccountID),
			Phone:         NormalizeKey(r.text(i, domain.FieldPhone)),
			Name:          r.text(i, domain.FieldName),
			ReferenceDate: r.text(i, domain.FieldReferenceDate),
		}
		if withStated {
			rec.StatedAmount = r.amount(i, domain.FieldStatedAmount).Value
			rec.HasStatedAmount = true
		}
		records = append(records, rec)
	}
	return domain.SubscriberTable{Records: records, Warnings: r.warnings}, nil
}
