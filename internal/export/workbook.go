package export

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary  = "Resumen"
	SheetByPeriod = "Por Periodo"
	SheetByType   = "Por Tipo"
	SheetTop      = "Top"
	SheetDetail   = "Detalle"
)

var (
	summaryHeader = []string{"GRUPO", "CASOS", "DEUDA", "PAGADO", "PENDIENTE", "EFECTIVIDAD_%"}
	caseHeader    = []string{"ID_COBRANZA", "PERIODO", "TIPO", "DEUDA", "TOTAL_PAGADO", "SALDO_PENDIENTE", "ESTADO", "PORCENTAJE_PAGADO"}
)

// Workbook renders a dashboard report as an xlsx file.
func Workbook(report domain.DashboardReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetByPeriod, SheetByType, SheetTop, SheetDetail} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, header: bold}
	w.summary(report)
	w.table(SheetByPeriod, summaryHeader, summaryRows(report.ByPeriod))
	w.table(SheetByType, summaryHeader, summaryRows(report.ByType))
	w.table(SheetTop, caseHeader, caseRows(report.Top))
	w.table(SheetDetail, caseHeader, caseRows(report.Detail))
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error and turns later writes into no-ops.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, n int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) headerRow(sheet string, n int, header []string) {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	w.row(sheet, n, values)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(len(header), n)
	w.err = w.f.SetCellStyle(sheet, first, last, w.header)
}

func (w *sheetWriter) table(sheet string, header []string, rows [][]interface{}) {
	w.headerRow(sheet, 1, header)
	for i, values := range rows {
		w.row(sheet, i+2, values)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheet, "A", "H", 18)
	}
}

func (w *sheetWriter) summary(report domain.DashboardReport) {
	t := report.Totals
	w.headerRow(SheetSummary, 1, []string{"INDICADOR", "VALOR"})
	rows := [][]interface{}{
		{"RUN_ID", report.RunID},
		{"CARTERA TOTAL", number(t.Debt)},
		{"RECUPERADO", number(t.Paid)},
		{"PENDIENTE", number(t.Pending)},
		{"EFECTIVIDAD_%", number(t.Effectiveness)},
		{"CASOS", t.Cases},
		{"CASOS PAGADOS", t.PaidCases},
		{"CASOS PENDIENTES", t.PendingCases},
		{"PERIODOS", t.Periods},
	}
	for i, values := range rows {
		w.row(SheetSummary, i+2, values)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetSummary, "A", "B", 24)
	}
}

func summaryRows(groups []domain.Summary) [][]interface{} {
	out := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		out = append(out, []interface{}{
			g.Key, g.Cases, number(g.Debt), number(g.Paid), number(g.Pending), number(g.Effectiveness),
		})
	}
	return out
}

func caseRows(cases []domain.ReconciledCase) [][]interface{} {
	out := make([][]interface{}, 0, len(cases))
	for _, c := range cases {
		out = append(out, []interface{}{
			c.AccountID,
			c.Period,
			c.DebtType,
			number(c.DebtAmount),
			number(c.TotalPaid),
			number(c.PendingBalance),
			string(c.Status),
			number(c.PaidPercentage),
		})
	}
	return out
}

// number keeps spreadsheet cells numeric.
func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
