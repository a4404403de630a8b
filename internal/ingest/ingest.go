package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Format is a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks a format from the file's leading bytes, falling back to
// its extension for text files.
func DetectFormat(filename string, head []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return FormatXLS, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%s: %w", filepath.Ext(filename), domain.ErrUnsupportedFormat)
	}
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// Parser turns uploaded spreadsheets into raw tables.
type Parser struct {
	maxBytes int64
	log      *zap.Logger
}

func NewParser(p Params) *Parser {
	return New(p.Config.UploadMaxBytes, p.Log.Named("ingest"))
}

func New(maxBytes int64, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{maxBytes: maxBytes, log: log}
}

// Parse reads r fully and decodes the first sheet of the spreadsheet.
func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) (domain.Table, error) {
	data, err := p.readAll(r)
	if err != nil {
		return domain.Table{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Table{}, err
	}

	format, err := DetectFormat(filename, data)
	if err != nil {
		return domain.Table{}, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatXLS:
		rows, err = readXLS(data)
	default:
		rows, err = readCSV(data)
	}
	if err != nil {
		p.log.Debug("spreadsheet rejected",
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return domain.Table{}, err
	}

	table, err := toTable(rows)
	if err != nil {
		return domain.Table{}, err
	}
	p.log.Debug("spreadsheet parsed",
		zap.String("format", string(format)),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", table.Len()),
	)
	return table, nil
}

func (p *Parser) readAll(r io.Reader) ([]byte, error) {
	if p.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxBytes {
		return nil, domain.ErrUploadTooLarge
	}
	return data, nil
}

// toTable takes the first non-blank row as the header. Blank data rows are
// dropped and short rows are padded to the header width.
func toTable(rows [][]string) (domain.Table, error) {
	start := -1
	for i, row := range rows {
		if !isBlank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return domain.Table{}, domain.ErrEmptySheet
	}

	headers := trimTrailingBlank(rows[start])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	data := make([][]string, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]string, max(len(headers), len(row)))
		copy(cells, row)
		data = append(data, cells[:len(headers)])
	}
	return domain.Table{Headers: headers, Rows: data}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimTrailingBlank(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return append([]string(nil), row[:end]...)
}
