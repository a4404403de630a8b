package domain

// Table is a raw, already-parsed spreadsheet: a header row and string cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Cell returns the value at row/col, or "" for ragged rows.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// TableKind names the three input kinds the normalizer understands.
type TableKind string

const (
	TableKindDebts       TableKind = "debts"
	TableKindPayments    TableKind = "payments"
	TableKindSubscribers TableKind = "subscribers"
)

// Field is a canonical column name.
type Field string

const (
	FieldAccountID     Field = "account_id"
	FieldPeriod        Field = "period"
	FieldDebtAmount    Field = "debt_amount"
	FieldDebtType      Field = "debt_type"
	FieldAmount        Field = "amount"
	FieldPhone         Field = "phone"
	FieldName          Field = "name"
	FieldReferenceDate Field = "reference_date"
	FieldStatedAmount  Field = "stated_amount"
)

// Fields lists every canonical field.
var Fields = []Field{
	FieldAccountID,
	FieldPeriod,
	FieldDebtAmount,
	FieldDebtType,
	FieldAmount,
	FieldPhone,
	FieldName,
	FieldReferenceDate,
	FieldStatedAmount,
}
