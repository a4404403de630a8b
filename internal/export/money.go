package export

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money renders an amount as "Bs. 1,234.50".
func Money(d decimal.Decimal) string {
	return printer.Sprintf("Bs. %.2f", d.Round(2).InexactFloat64())
}

// Percent renders an effectiveness figure with one decimal.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
