package export

import (
	"bytes"
	"encoding/csv"
	"sort"

	"github.com/smallbiznis/dunning/internal/collection/aggregate"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ContactHeader is the column order expected by the SMS gateway.
var ContactHeader = []string{"NUMERO", "NOMBRE", "FECHA", "CODIGO", "MONTO"}

// ContactCSV renders rows as a BOM-prefixed CSV document.
func ContactCSV(rows []domain.ContactRow, sep rune) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if sep != 0 {
		w.Comma = sep
	}
	if err := w.Write(ContactHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.Phone,
			row.Name,
			row.ReferenceDate,
			row.AccountID,
			row.Amount.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type category struct {
	name string
	rows []domain.ContactRow
}

// ContactFiles splits rows into req.Parts files per category. Empty chunks
// produce no file; file indexes still follow chunk positions.
func ContactFiles(rows []domain.ContactRow, req domain.ExportRequest, sep rune) ([]domain.ExportFile, error) {
	if len(rows) == 0 {
		return nil, domain.ErrEmptyExport
	}
	if _, err := FileName(req.Prefix, "", 1); err != nil {
		return nil, err
	}

	var files []domain.ExportFile
	for _, cat := range categorize(rows, req.SplitBy) {
		chunks, err := aggregate.Partition(cat.rows, req.Parts)
		if err != nil {
			return nil, err
		}
		for i, chunk := range chunks {
			if len(chunk) == 0 {
				continue
			}
			name, err := FileName(req.Prefix, cat.name, i+1)
			if err != nil {
				return nil, err
			}
			data, err := ContactCSV(chunk, sep)
			if err != nil {
				return nil, err
			}
			files = append(files, domain.ExportFile{Name: name, Rows: len(chunk), Data: data})
		}
	}
	return files, nil
}

func categorize(rows []domain.ContactRow, split domain.SplitBy) []category {
	switch split {
	case domain.SplitClassification:
		groups := make(map[domain.Classification][]domain.ContactRow)
		for _, row := range rows {
			groups[row.Classification] = append(groups[row.Classification], row)
		}
		out := make([]category, 0, len(groups))
		for _, c := range domain.Classifications {
			if len(groups[c]) > 0 {
				out = append(out, category{name: string(c), rows: groups[c]})
			}
		}
		return out
	case domain.SplitType:
		groups := make(map[string][]domain.ContactRow)
		for _, row := range rows {
			token := categoryToken(row.DebtType)
			groups[token] = append(groups[token], row)
		}
		tokens := make([]string, 0, len(groups))
		for token := range groups {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		out := make([]category, 0, len(tokens))
		for _, token := range tokens {
			out = append(out, category{name: token, rows: groups[token]})
		}
		return out
	default:
		return []category{{rows: rows}}
	}
}
