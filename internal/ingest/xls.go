package ingest

import (
	"fmt"
	"os"

	"github.com/extrame/xls"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// readXLS decodes a legacy BIFF workbook. The library only opens paths, so the
// upload is spooled to a temp file first.
func readXLS(data []byte) ([][]string, error) {
	tmp, err := os.CreateTemp("", "dunning-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	book, err := xls.Open(tmp.Name(), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableSpreadsheet, err)
	}
	if book.NumSheets() == 0 {
		return nil, domain.ErrEmptySheet
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, domain.ErrEmptySheet
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
