package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	integralFloatRe = regexp.MustCompile(`^-?\d+\.0+$`)
	groupedCommaRe  = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	groupedDotRe    = regexp.MustCompile(`^\d{1,3}(\.\d{3}){2,}$`)

	currencyPrefixes = []string{"BS.", "BS", "USD", "US$", "$", "€"}
)

// Amounts with an exponent outside this range are treated as unreadable: rescaling
// them against ordinary amounts does not terminate in practice.
const (
	minAmountExponent = -18
	maxAmountExponent = 18
)

// CoercedAmount is the result of a best-effort monetary parse.
type CoercedAmount struct {
	Value decimal.Decimal
	// Defaulted is set when the cell could not be read as a number and Value is 0.
	Defaulted bool
	// Negated is set when the cell was negative and Value holds its absolute value.
	Negated bool
}

// ParseAmount reads a monetary cell. It never fails: unreadable cells become 0 and
// negative cells are flipped, both flagged on the result.
func ParseAmount(raw string) CoercedAmount {
	value, ok := parseDecimal(raw)
	if !ok {
		return CoercedAmount{Value: decimal.Zero, Defaulted: true}
	}
	if value.IsNegative() {
		return CoercedAmount{Value: value.Abs(), Negated: true}
	}
	return CoercedAmount{Value: value}
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	upper := strings.ToUpper(s)
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(upper, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	s = strings.ReplaceAll(s, " ", "")
	s = normalizeSeparators(s)
	if s == "" {
		return decimal.Zero, false
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := value.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, false
	}
	if negative {
		value = value.Neg()
	}
	return value, true
}

// normalizeSeparators rewrites "1.234,56", "1,234.56" and "1,234" into a plain
// dot-decimal number.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if groupedCommaRe.MatchString(s) {
			return strings.ReplaceAll(s, ",", "")
		}
		if strings.Count(s, ",") == 1 {
			return strings.Replace(s, ",", ".", 1)
		}
		return s
	case groupedDotRe.MatchString(s):
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// NormalizeKey renders a join key as a canonical string so that an account id
// stored as a number in one file matches the same id stored as text in another.
func NormalizeKey(raw string) string {
	s := strings.TrimSpace(raw)
	if integralFloatRe.MatchString(s) {
		s = s[:strings.Index(s, ".")]
	}
	return s
}

// NormalizeHeader trims, uppercases and replaces inner spaces with underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToUpper(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}
