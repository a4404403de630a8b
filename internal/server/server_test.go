package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dunning/internal/clock"
	"github.com/smallbiznis/dunning/internal/collection/domain"
	"github.com/smallbiznis/dunning/internal/collection/service"
	"github.com/smallbiznis/dunning/internal/config"
	"github.com/smallbiznis/dunning/internal/ingest"
	"github.com/smallbiznis/dunning/internal/observability"
	"github.com/smallbiznis/dunning/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

const (
	debtsCSV       = "ID_COBRANZA;PERIODO;DEUDA;TIPO\nA;202401;100;AGUA\nB;202401;50;LUZ\n"
	paymentsCSV    = "ID_COBRANZA,PERIODO,IMPORTE\nA,202401,40\nB,202401,50\n"
	subscribersCSV = "CODIGO;NUMERO;NOMBRE;FECHA;MONTO\nA;111;Ana;2024-01-31;100\nB;222;Beto;2024-01-31;50\n"
	accountPaysCSV = "CODIGO;IMPORTE\nA;40\nB;50\n"
)

type testServer struct {
	server *Server
	store  *workspace.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{UploadMaxBytes: 1 << 20}
	store := workspace.NewStore(workspace.Params{Clock: clk})
	svc := service.NewService(service.Params{
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Config: config.NewStaticCollectionConfigHolder(config.DefaultCollectionConfig()),
	})

	srv := NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{Environment: "test", SpanWorkspaceIDs: true}, nil, cfg.UploadMaxBytes),
		Cfg:        cfg,
		Log:        zap.NewNop(),
		Svc:        svc,
		Parser:     ingest.New(cfg.UploadMaxBytes, nil),
		Workspaces: store,
		Cookies:    workspace.NewCookieManager(cfg, workspace.DefaultJanitorConfig()),
		Clock:      clk,
	})
	return &testServer{server: srv, store: store}
}

type upload struct {
	field    string
	filename string
	content  string
}

func multipartRequest(t *testing.T, method, path string, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (ts *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	return rec
}

func workspaceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == workspace.DefaultCookieName {
			return c
		}
	}
	t.Fatalf("workspace cookie not set")
	return nil
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestCrossCheckFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", debtsCSV}}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := workspaceCookie(t, rec)

	var base struct {
		Data domain.DebtBaseSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &base))
	assert.Equal(t, 2, base.Data.Records)

	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/crosscheck", []upload{{"file", "pagos.csv", paymentsCSV}}, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run struct {
		Data domain.CrossCheckReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 2, run.Data.Totals.Cases)
	assert.Equal(t, 1, run.Data.Totals.PaidCases)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/report?status=pending", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Data domain.DashboardReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Data.Top, 1)
	assert.Equal(t, "A", report.Data.Top[0].AccountID)
	assert.Equal(t, run.Data.RunID, report.Data.RunID)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/report.xlsx", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/report.pdf", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestWorkspacesAreIsolated(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", debtsCSV}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/debts", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "debt_base_missing", decodeError(t, rec).Type)
	assert.Equal(t, 2, ts.store.Len())
}

func TestReportRequiresResult(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/report", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_result", decodeError(t, rec).Type)

	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/crosscheck", []upload{{"file", "pagos.csv", paymentsCSV}}, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSchemaErrorResponse(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", "ID_COBRANZA;MONTO\n1;2\n"}}, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decodeError(t, rec)
	assert.Equal(t, "schema_error", payload.Type)
	assert.Equal(t, domain.TableKindDebts, payload.Kind)
	assert.Equal(t, []string{"ID_COBRANZA", "MONTO"}, payload.Found)
	assert.Contains(t, payload.Missing, domain.FieldDebtAmount)
	assert.Len(t, payload.Required, 4)
}

func TestMissingUpload(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", nil, map[string]string{"note": "x"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "file", payload.Errors[0].Field)
	assert.Equal(t, "missing_upload", payload.Errors[0].Code)
}

func TestInvalidReportQuery(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/report?status=late", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/report?top=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "top", decodeError(t, rec).Errors[0].Field)
}

func contactUploads(payments string) []upload {
	return []upload{
		{"subscribers", "abonados.csv", subscribersCSV},
		{"payments", "pagos.csv", payments},
	}
}

func TestListContacts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/contacts", contactUploads(accountPaysCSV), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data domain.ContactReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "111", resp.Data.Rows[0].Phone)
	assert.Equal(t, 2, resp.Data.Subscribers)

	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/contacts", contactUploads(accountPaysCSV), map[string]string{"classification": "late"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportContacts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/contacts/export", contactUploads(accountPaysCSV), map[string]string{
		"parts":  "1",
		"prefix": "SMS",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Export-Files"))

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "SMS_1.csv", zr.File[0].Name)
}

func TestExportContactsEmptyIsInformational(t *testing.T) {
	ts := newTestServer(t)

	settled := "CODIGO;IMPORTE\nA;100\nB;50\n"
	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/contacts/export", contactUploads(settled), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Warnings []domain.WarningSummary `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, domain.WarningEmptyResult, resp.Warnings[0].Code)
}

func TestExportContactsRejectsBadOptions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/contacts/export", contactUploads(accountPaysCSV), map[string]string{"parts": "0"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "parts", decodeError(t, rec).Errors[0].Field)

	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/contacts/export", contactUploads(accountPaysCSV), map[string]string{"split_by": "region"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndWorkspace(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", debtsCSV}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := workspaceCookie(t, rec)
	require.Equal(t, 1, ts.store.Len())

	rec = ts.do(httptest.NewRequest(http.MethodDelete, "/api/workspace", nil), cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, ts.store.Len())
}

func oversizedDebts() string {
	return "ID_COBRANZA;PERIODO;DEUDA;TIPO\n" + strings.Repeat("A;202401;100;AGUA\n", 70000)
}

func TestUploadTooLargeByContentLength(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", oversizedDebts()}}, nil))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "upload_too_large", decodeError(t, rec).Type)
}

func TestUploadTooLargeWhileStreaming(t *testing.T) {
	ts := newTestServer(t)

	req := multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", oversizedDebts()}}, nil)
	req.ContentLength = -1

	rec := ts.do(req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "upload_too_large", decodeError(t, rec).Type)

	cookie := workspaceCookie(t, rec)
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/debts", nil), cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func spanAttributeMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestRequestSpansCarryWorkspaceAndUpload(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ts := newTestServer(t)

	rec := ts.do(multipartRequest(t, http.MethodPost, "/api/debts", []upload{{"file", "deuda.csv", debtsCSV}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := workspaceCookie(t, rec)

	rec = ts.do(multipartRequest(t, http.MethodPost, "/api/crosscheck", []upload{{"file", "pagos.csv", paymentsCSV}}, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var run struct {
		Data domain.CrossCheckReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))

	spans := make(map[string]map[attribute.Key]attribute.Value)
	for _, span := range recorder.Ended() {
		spans[span.Name()] = spanAttributeMap(span)
	}

	load, ok := spans["HTTP POST /api/debts"]
	require.True(t, ok)
	assert.Equal(t, cookie.Value, load["workspace_id"].AsString())
	assert.Equal(t, "debts", load["upload.kind"].AsString())
	assert.Equal(t, int64(2), load["upload.rows"].AsInt64())

	check, ok := spans["HTTP POST /api/crosscheck"]
	require.True(t, ok)
	assert.Equal(t, "payments", check["upload.kind"].AsString())
	assert.Equal(t, run.Data.RunID, check["run_id"].AsString())
	assert.Equal(t, int64(http.StatusOK), check["http.status_code"].AsInt64())
}
