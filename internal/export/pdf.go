package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// SummaryPDF renders the executive summary of a dashboard report.
func SummaryPDF(report domain.DashboardReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Dashboard ejecutivo de cobranza", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(12,
		col.New(8).Add(
			text.New("Corrida: "+report.RunID, props.Text{Size: 9}),
			text.New("Generado: "+report.Generated.Format("2006-01-02 15:04 MST"), props.Text{Size: 9, Top: 4}),
		),
		col.New(4),
	)

	t := report.Totals
	m.AddRow(8, text.NewCol(12, "Metricas", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}))
	metric(m, "Cartera total", Money(t.Debt), fmt.Sprintf("%d casos", t.Cases))
	metric(m, "Recuperado", Money(t.Paid), Percent(t.Effectiveness))
	metric(m, "Pendiente", Money(t.Pending), fmt.Sprintf("%d casos", t.PendingCases))
	metric(m, "Efectividad", Percent(t.Effectiveness), fmt.Sprintf("%d pagados", t.PaidCases))

	summaryTable(m, "Por periodo", report.ByPeriod)
	summaryTable(m, "Por tipo", report.ByType)

	m.AddRow(10, text.NewCol(12, "Mayores saldos pendientes", props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}))
	if len(report.Highlights) == 0 {
		m.AddRow(8, text.NewCol(12, "No hay pendientes", props.Text{Size: 9}))
	} else {
		m.AddRow(7,
			text.NewCol(3, "Cuenta", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Periodo", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Tipo", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Deuda", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
			text.NewCol(3, "Saldo", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, c := range report.Highlights {
			m.AddRow(6,
				text.NewCol(3, c.AccountID, props.Text{Size: 8}),
				text.NewCol(2, c.Period, props.Text{Size: 8}),
				text.NewCol(2, c.DebtType, props.Text{Size: 8}),
				text.NewCol(2, Money(c.DebtAmount), props.Text{Size: 8, Align: align.Right}),
				text.NewCol(3, Money(c.PendingBalance), props.Text{Size: 8, Align: align.Right}),
			)
		}
		m.AddRow(7,
			col.New(7),
			text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, Money(report.HighlightsTotal), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func metric(m core.Maroto, label, value, detail string) {
	m.AddRow(7,
		text.NewCol(4, label, props.Text{Size: 10}),
		text.NewCol(4, value, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(4, detail, props.Text{Size: 9, Align: align.Right}),
	)
}

func summaryTable(m core.Maroto, title string, groups []domain.Summary) {
	m.AddRow(10, text.NewCol(12, title, props.Text{Size: 12, Style: fontstyle.Bold, Top: 4}))
	m.AddRow(7,
		text.NewCol(3, "Grupo", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Casos", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Deuda", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Pagado", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Efectividad", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, g := range groups {
		m.AddRow(6,
			text.NewCol(3, g.Key, props.Text{Size: 8}),
			text.NewCol(1, fmt.Sprintf("%d", g.Cases), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(3, Money(g.Debt), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(3, Money(g.Paid), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(2, Percent(g.Effectiveness), props.Text{Size: 8, Align: align.Right}),
		)
	}
}
