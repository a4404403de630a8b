package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

const (
	uploadKindKey = "upload_kind"
	uploadRowsKey = "upload_rows"

	// multipartOverhead covers boundaries, part headers and small form fields.
	multipartOverhead = 64 << 10
	// contactUploadFiles is subscribers, payments and the optional debts ledger.
	contactUploadFiles = 3
)

// LimitUploadBody caps the request body at files uploads of the configured size.
// Reads past the cap fail with *http.MaxBytesError instead of spooling to disk.
func (s *Server) LimitUploadBody(files int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.UploadMaxBytes > 0 {
			limit := int64(files)*s.cfg.UploadMaxBytes + multipartOverhead
			if c.Request.ContentLength > limit {
				AbortWithError(c, domain.ErrUploadTooLarge)
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// readTable parses the multipart file in field into a raw table.
func (s *Server) readTable(c *gin.Context, field string, kind domain.TableKind) (domain.Table, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.Table{}, newValidationError(field, domain.ErrMissingUpload.Error(), field+" is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Table{}, domain.ErrUploadTooLarge
		}
		return domain.Table{}, invalidRequestError()
	}
	if s.cfg.UploadMaxBytes > 0 && fh.Size > s.cfg.UploadMaxBytes {
		return domain.Table{}, domain.ErrUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	c.Set(uploadKindKey, string(kind))
	table, err := s.parser.Parse(c.Request.Context(), fh.Filename, f)
	if err != nil {
		return domain.Table{}, err
	}
	c.Set(uploadRowsKey, c.GetInt(uploadRowsKey)+len(table.Rows))
	return table, nil
}

// readOptionalTable is readTable for uploads the caller may leave out.
func (s *Server) readOptionalTable(c *gin.Context, field string, kind domain.TableKind) (*domain.Table, error) {
	if _, err := c.FormFile(field); errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	table, err := s.readTable(c, field, kind)
	if err != nil {
		return nil, err
	}
	return &table, nil
}
