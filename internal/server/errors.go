package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/collection/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type     string            `json:"type"`
	Message  string            `json:"message"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Kind     domain.TableKind  `json:"kind,omitempty"`
	Required []domain.Field    `json:"required,omitempty"`
	Found    []string          `json:"found,omitempty"`
	Missing  []domain.Field    `json:"missing,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if schemaErr, ok := domain.AsSchemaError(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:     "schema_error",
			Message:  schemaErr.Error(),
			Kind:     schemaErr.Kind,
			Required: schemaErr.Required,
			Found:    schemaErr.Found,
			Missing:  schemaErr.Missing,
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, domain.ErrDebtBaseMissing),
		errors.Is(err, domain.ErrNoResult),
		errors.Is(err, domain.ErrStaleDebtBase):
		return http.StatusConflict, errorPayload{
			Type:    stateErrorCode(err),
			Message: stateErrorMessage(err),
		}
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "upload_too_large",
			Message: "upload too large",
		}
	case errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrUnsupportedReportFormat):
		return http.StatusUnsupportedMediaType, errorPayload{
			Type:    "unsupported_format",
			Message: "unsupported file format",
		}
	case errors.Is(err, domain.ErrUnreadableSpreadsheet),
		errors.Is(err, domain.ErrEmptySheet):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    validationErrorCode(err),
			Message: "spreadsheet could not be read",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog yields the error type and code recorded in request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, domain.ErrMissingUpload),
		errors.Is(err, domain.ErrInvalidChunkCount),
		errors.Is(err, domain.ErrInvalidClassification),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSplit),
		errors.Is(err, domain.ErrInvalidTopN),
		errors.Is(err, domain.ErrInvalidExportPrefix),
		errors.Is(err, domain.ErrPaymentModeMismatch):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, domain.ErrWorkspaceNotFound)
}

func stateErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoResult):
		return domain.ErrNoResult.Error()
	case errors.Is(err, domain.ErrStaleDebtBase):
		return domain.ErrStaleDebtBase.Error()
	default:
		return domain.ErrDebtBaseMissing.Error()
	}
}

func stateErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoResult):
		return "run a cross-check first"
	case errors.Is(err, domain.ErrStaleDebtBase):
		return "debt base changed during the cross-check, run it again"
	default:
		return "load a debt base first"
	}
}

func validationErrorCode(err error) string {
	for _, known := range []error{
		ErrInvalidRequest,
		domain.ErrMissingUpload,
		domain.ErrInvalidChunkCount,
		domain.ErrInvalidClassification,
		domain.ErrInvalidStatus,
		domain.ErrInvalidSplit,
		domain.ErrInvalidTopN,
		domain.ErrInvalidExportPrefix,
		domain.ErrPaymentModeMismatch,
		domain.ErrUnreadableSpreadsheet,
		domain.ErrEmptySheet,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "missing_upload":
		return "file"
	case "invalid_chunk_count":
		return "parts"
	case "invalid_top_n":
		return "top"
	case "invalid_export_prefix":
		return "prefix"
	case "invalid_split":
		return "split_by"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_upload":
		return "file is required"
	default:
		return "invalid value"
	}
}
