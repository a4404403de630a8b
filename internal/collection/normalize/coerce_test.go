package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		want      string
		defaulted bool
		negated   bool
	}{
		{name: "plain", raw: "100", want: "100"},
		{name: "decimal point", raw: "100.50", want: "100.5"},
		{name: "padded", raw: "  42 ", want: "42"},
		{name: "thousands comma", raw: "1,234.56", want: "1234.56"},
		{name: "latin format", raw: "1.234,56", want: "1234.56"},
		{name: "decimal comma", raw: "12,5", want: "12.5"},
		{name: "grouped comma only", raw: "1,234", want: "1234"},
		{name: "grouped dots", raw: "1.234.567", want: "1234567"},
		{name: "currency prefix", raw: "Bs. 250", want: "250"},
		{name: "dollar", raw: "$75", want: "75"},
		{name: "negative", raw: "-40", want: "40", negated: true},
		{name: "negative currency", raw: "Bs. -40", want: "40", negated: true},
		{name: "accounting negative", raw: "(15)", want: "15", negated: true},
		{name: "blank", raw: "", want: "0", defaulted: true},
		{name: "text", raw: "n/a", want: "0", defaulted: true},
		{name: "dash", raw: "-", want: "0", defaulted: true},
		{name: "scientific", raw: "1.5e3", want: "1500"},
		{name: "tiny exponent", raw: "1e-999999999", want: "0", defaulted: true},
		{name: "huge exponent", raw: "1e999999999", want: "0", defaulted: true},
		{name: "negative huge exponent", raw: "-2E999999999", want: "0", defaulted: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.raw)
			assert.Equal(t, tc.want, got.Value.String())
			assert.Equal(t, tc.defaulted, got.Defaulted)
			assert.Equal(t, tc.negated, got.Negated)
			assert.False(t, got.Value.IsNegative())
		})
	}
}

func TestParseAmountOutOfRangeExponentStaysUsable(t *testing.T) {
	got := ParseAmount("1e-999999999")
	assert.True(t, got.Defaulted)

	sum := got.Value.Add(decimal.NewFromInt(100))
	assert.Equal(t, "100", sum.String())
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "123", NormalizeKey("123"))
	assert.Equal(t, "123", NormalizeKey(" 123.0 "))
	assert.Equal(t, "202401", NormalizeKey("202401.00"))
	assert.Equal(t, "12.5", NormalizeKey("12.5"))
	assert.Equal(t, "ABC-01", NormalizeKey("ABC-01"))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "ID_COBRANZA", NormalizeHeader("id cobranza"))
	assert.Equal(t, "ID_COBRANZA", NormalizeHeader(" Id_Cobranza "))
	assert.Equal(t, "PERIODO", NormalizeHeader("\ufeffPeriodo"))
}
