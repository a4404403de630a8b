package export

import (
	"archive/zip"
	"bytes"
	"time"

	"github.com/smallbiznis/dunning/internal/collection/domain"
)

// Zip bundles files into a single archive stamped with modified.
func Zip(files []domain.ExportFile, modified time.Time) ([]byte, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyExport
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
