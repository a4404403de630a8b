package domain

import "strings"

// Classification places an account in exactly one collection bucket.
type Classification string

const (
	ClassificationNoDebt          Classification = "NO_DEBT"
	ClassificationFullyPaid       Classification = "FULLY_PAID"
	ClassificationFullyDelinquent Classification = "FULLY_DELINQUENT"
	ClassificationPartialPayer    Classification = "PARTIAL_PAYER"
)

// Classifications lists every bucket in evaluation order.
var Classifications = []Classification{
	ClassificationNoDebt,
	ClassificationFullyPaid,
	ClassificationFullyDelinquent,
	ClassificationPartialPayer,
}

// ParseClassification accepts any casing and dashes in place of underscores.
func ParseClassification(raw string) (Classification, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "-", "_")
	for _, c := range Classifications {
		if string(c) == value {
			return c, nil
		}
	}
	return "", ErrInvalidClassification
}

// Classify evaluates the rules in order; the first match wins.
func Classify(p AccountProfile) Classification {
	switch {
	case p.PeriodsOwed == 0:
		return ClassificationNoDebt
	case p.PendingBalance.Sign() <= 0:
		return ClassificationFullyPaid
	case p.PeriodsPaid == 0:
		return ClassificationFullyDelinquent
	default:
		return ClassificationPartialPayer
	}
}
