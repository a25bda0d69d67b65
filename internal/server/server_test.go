package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/ratelimit"
	"github.com/ayurtrace/ayurtrace/internal/testutil"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	env     *testutil.Env
	svc     *testutil.Services
	fixture testutil.Fixture
	server  *Server
}

// newTestServer runs the clock at wall time so issued tokens validate.
func newTestServer(t *testing.T, tracePerMinute int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := testutil.New(t)
	env.Clock.Set(time.Now().UTC())
	svc := env.Services(t)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:           router,
		Cfg:           svc.Config,
		Authn:         svc.Identity,
		IdentitySvc:   svc.Identity,
		AuthzSvc:      env.Authz,
		AuditSvc:      env.Audit,
		RegistrySvc:   svc.Registry,
		CollectionSvc: svc.Collection,
		BatchSvc:      svc.Batch,
		QualitySvc:    svc.Quality,
		ProductSvc:    svc.Product,
		CustodySvc:    svc.Custody,
		ProvenanceSvc: svc.Provenance,
		AnalyticsSvc:  svc.Analytics,
		Blobs:         env.Blob,
		TraceLimiter: ratelimit.NewTraceLimiter(ratelimit.OTPLimiterParams{
			Config: config.Config{PublicTraceRatePerMinute: tracePerMinute},
			Log:    env.Log,
			Clock:  env.Clock,
		}),
	})

	return &testServer{env: env, svc: svc, fixture: env.SeedRegistry(t), server: srv}
}

func (ts *testServer) token(t *testing.T, role actor.Role) string {
	t.Helper()
	raw, _, err := ts.svc.Tokens.Issue(ts.env.Actor(role))
	require.NoError(t, err)
	return "Bearer " + raw
}

func (ts *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Reader
	switch v := body.(type) {
	case nil:
		payload = bytes.NewReader(nil)
	case string:
		payload = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func errorOf(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decode(t, resp)
	payload, ok := body["error"].(map[string]any)
	require.True(t, ok, resp.Body.String())
	return payload
}

func (ts *testServer) createBatch(t *testing.T, auth string) map[string]any {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/batches", auth, map[string]any{
		"species_id": snowflake.ID(ts.fixture.Species.ID).String(),
		"location":   "Neemuch mandi",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	data, ok := decode(t, resp)["data"].(map[string]any)
	require.True(t, ok)
	return data
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.do(t, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_found", errorOf(t, resp)["type"])
}

func TestAPIRequiresBearerToken(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.do(t, http.MethodGet, "/api/batches", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/batches", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "invalid_token", errorOf(t, resp)["code"])
}

func TestCreateBatchOverHTTP(t *testing.T) {
	ts := newTestServer(t, 0)
	maker := ts.token(t, actor.RoleManufacturer)

	batch := ts.createBatch(t, maker)
	assert.Equal(t, "COLLECTED", batch["status"])
	assert.True(t, strings.HasPrefix(batch["qr_code"].(string), "AYU-"))

	resp := ts.do(t, http.MethodGet, "/api/batches/"+batch["id"].(string), maker, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/batches?status=collected", maker, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestCreateBatchRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.do(t, http.MethodPost, "/api/batches", ts.token(t, actor.RoleManufacturer), `{"species_id":`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	payload := errorOf(t, resp)
	assert.Equal(t, "validation", payload["type"])
	assert.NotEmpty(t, payload["errors"])

	resp = ts.do(t, http.MethodPost, "/api/batches", ts.token(t, actor.RoleConsumer), map[string]any{
		"species_id": snowflake.ID(ts.fixture.Species.ID).String(),
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/batches?recall_flag=maybe", ts.token(t, actor.RoleManufacturer), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusOverHTTP(t *testing.T) {
	ts := newTestServer(t, 0)
	maker := ts.token(t, actor.RoleManufacturer)
	batch := ts.createBatch(t, maker)
	path := "/api/batches/" + batch["id"].(string) + "/status"

	for _, status := range []string{"PROCESSING", "IN_TRANSIT", "COLLECTED"} {
		resp := ts.do(t, http.MethodPatch, path, maker, map[string]any{"status": status})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		data := decode(t, resp)["data"].(map[string]any)
		assert.Equal(t, status, data["status"])
	}

	resp := ts.do(t, http.MethodPatch, path, maker, map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
	assert.Equal(t, "unknown_batch_status", errorOf(t, resp)["code"])

	resp = ts.do(t, http.MethodPatch, path, maker, map[string]any{"status": "RECALLED"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
	assert.Equal(t, "recall_requires_recall_operation", errorOf(t, resp)["code"])
}

func TestTraceByQRRecordsScan(t *testing.T) {
	ts := newTestServer(t, 0)
	batch := ts.createBatch(t, ts.token(t, actor.RoleManufacturer))
	code := batch["qr_code"].(string)

	resp := ts.do(t, http.MethodGet, "/public/trace/"+code+"?location=Pune", "", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	bundle, ok := decode(t, resp)["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bundle", bundle["resourceType"])
	assert.EqualValues(t, 1, ts.env.CountRows(t, "consumer_scans", "location = ?", "Pune"))

	resp = ts.do(t, http.MethodGet, "/public/trace/AYU-01HZX3K6Q8ZJ5T4WQ2R9M7N3BC", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.do(t, http.MethodGet, "/public/trace/not-a-code", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTraceByQRRateLimited(t *testing.T) {
	ts := newTestServer(t, 1)
	batch := ts.createBatch(t, ts.token(t, actor.RoleManufacturer))
	path := "/public/trace/" + batch["qr_code"].(string)

	resp := ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.EqualValues(t, 1, ts.env.CountRows(t, "consumer_scans", ""))
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	maker := ts.token(t, actor.RoleManufacturer)
	ts.createBatch(t, maker)
	ts.env.Clock.Advance(time.Minute)

	resp := ts.do(t, http.MethodGet, "/api/analytics?timeframe=7d", maker, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report, ok := decode(t, resp)["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, report["total_batches"])

	resp = ts.do(t, http.MethodGet, "/api/analytics?timeframe=1y", maker, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/analytics/export?timeframe=90d", maker, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, xlsxContentType, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "ayurtrace-analytics-90d.xlsx")
	assert.NotZero(t, resp.Body.Len())
}

func TestAuditLogsAdminOnly(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.do(t, http.MethodGet, "/api/audit-logs", ts.token(t, actor.RoleManufacturer), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/audit-logs?start_at=yesterday", ts.token(t, actor.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodGet, "/api/audit-logs", ts.token(t, actor.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data, ok := decode(t, resp)["data"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["audit_logs"])
}

func TestGetBlob(t *testing.T) {
	ts := newTestServer(t, 0)
	_, err := ts.env.Blob.Put(context.Background(), "provenance/1/bundle.json", strings.NewReader(`{"ok":true}`), "application/json")
	require.NoError(t, err)

	resp := ts.do(t, http.MethodGet, "/public/blobs/provenance/1/bundle.json", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, resp.Body.String())

	resp = ts.do(t, http.MethodGet, "/public/blobs/provenance/2/bundle.json", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
