package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/smallbiznis/dunning/internal/collection/domain"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV accepts ';' or ',' separated text in UTF-8 (with or without BOM) or
// Windows-1252, the encoding spreadsheet tools use for Spanish locales.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableSpreadsheet, err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableSpreadsheet, err)
	}
	return rows, nil
}

// detectDelimiter counts unquoted separators on the first non-empty line.
func detectDelimiter(data []byte) rune {
	line := data
	for len(line) > 0 {
		i := bytes.IndexByte(line, '\n')
		var current []byte
		if i < 0 {
			current, line = line, nil
		} else {
			current, line = line[:i], line[i+1:]
		}
		if len(bytes.TrimSpace(current)) == 0 {
			continue
		}
		semicolons, commas := 0, 0
		quoted := false
		for _, b := range current {
			switch b {
			case '"':
				quoted = !quoted
			case ';':
				if !quoted {
					semicolons++
				}
			case ',':
				if !quoted {
					commas++
				}
			}
		}
		if semicolons >= commas && semicolons > 0 {
			return ';'
		}
		return ','
	}
	return ','
}
