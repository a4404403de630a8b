package server

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

func parseOptionalInt(value string) (int, bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false, err
	}
	return parsed, true, nil
}

// parseClassifications accepts repeated or comma separated values.
func parseClassifications(values []string) ([]domain.Classification, error) {
	var out []domain.Classification
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := domain.ParseClassification(part)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func parseStatus(value string) (domain.Status, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return "", nil
	}
	status := domain.Status(trimmed)
	if !status.Valid() {
		return "", domain.ErrInvalidStatus
	}
	return status, nil
}
