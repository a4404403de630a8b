package export

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// fileToken turns free text into an upper-case file name token.
func fileToken(s string) string {
	token := slug.Make(s)
	token = strings.ReplaceAll(token, "-", "_")
	return strings.ToUpper(token)
}

// FileName builds {prefix}_{index}.csv, or {prefix}_{category}_{index}.csv when a
// category is given. index is 1-based.
func FileName(prefix, category string, index int) (string, error) {
	p := fileToken(prefix)
	if p == "" {
		return "", domain.ErrInvalidExportPrefix
	}
	if category == "" {
		return fmt.Sprintf("%s_%d.csv", p, index), nil
	}
	return fmt.Sprintf("%s_%s_%d.csv", p, categoryToken(category), index), nil
}

// categoryToken is the file name token of a category. Categories that differ only
// in case, accents or punctuation share a token.
func categoryToken(category string) string {
	c := fileToken(category)
	if c == "" {
		return uncategorized
	}
	return c
}

const uncategorized = "SIN_TIPO"
