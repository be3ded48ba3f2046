package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-rank-compare/internal/engine"
	testutil "github.com/gcbaptista/go-rank-compare/internal/testing"
	"github.com/gcbaptista/go-rank-compare/model"
)

func setupTestEngine(t *testing.T) *engine.Engine {
	return testutil.CreateTestEngine(t)
}

func setupTestRouter(eng *engine.Engine, opts ...RouteOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, eng, opts...)
	return router
}

func perform(router *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func seedRankings(t *testing.T, router *gin.Engine) {
	t.Helper()
	for name, body := range map[string]string{"gold": testutil.GoldTSV, "system": testutil.SystemTSV} {
		w := perform(router, http.MethodPut, "/rankings/"+name, "text/tab-separated-values", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
}

func TestHealthCheckHandler(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))

	w := perform(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestPutRankingHandler(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))

	tests := []struct {
		name           string
		path           string
		contentType    string
		body           string
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name:           "tsv ranking",
			path:           "/rankings/gold",
			contentType:    "text/tab-separated-values",
			body:           testutil.GoldTSV,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "plain text with malformed line",
			path:           "/rankings/plain",
			contentType:    "text/plain",
			body:           "A\t1\nbroken\n",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "json entries",
			path:           "/rankings/json",
			contentType:    "application/json",
			body:           `{"entries":[{"id":"A","score":2},{"id":"B","score":0,"comment":"x"}]}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid json",
			path:           "/rankings/bad",
			contentType:    "application/json",
			body:           `{"entries":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidJSON,
		},
		{
			name:           "json duplicate ids",
			path:           "/rankings/dup",
			contentType:    "application/json",
			body:           `{"entries":[{"id":"A","score":2},{"id":"A","score":1}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "json scores",
			path:           "/rankings/scores",
			contentType:    "application/json",
			body:           `{"scores":{"A":1,"B":3},"comments":{"B":"top"}}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "json entries and scores",
			path:           "/rankings/both",
			contentType:    "application/json",
			body:           `{"entries":[{"id":"A","score":2}],"scores":{"B":1}}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "json ids repeat after trimming",
			path:           "/rankings/trimmed-dup",
			contentType:    "application/json",
			body:           `{"entries":[{"id":"A","score":2},{"id":" A ","score":1}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "empty tsv",
			path:           "/rankings/empty",
			contentType:    "text/plain",
			body:           "\n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidRanking,
		},
		{
			name:           "whitespace name",
			path:           "/rankings/%20gold",
			contentType:    "text/plain",
			body:           testutil.GoldTSV,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodPut, tt.path, tt.contentType, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode != "" {
				var apiErr APIError
				decode(t, w, &apiErr)
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				assert.NotEmpty(t, apiErr.RequestID)
			}
		})
	}
}

func TestPutRankingHandler_ReportsSkippedLines(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))

	w := perform(router, http.MethodPut, "/rankings/sys", "text/plain", "A\t1\nbroken\nB\t3\n")
	require.Equal(t, http.StatusOK, w.Code)

	var imported model.RankingImport
	decode(t, w, &imported)
	assert.Equal(t, 2, imported.Summary.Size)
	assert.Len(t, imported.Skipped, 1)
	assert.Equal(t, []int{3}, imported.Unsorted)
}

func TestPutRankingHandler_JSONMatchesTSVChecks(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))

	w := perform(router, http.MethodPut, "/rankings/sys", "application/json",
		`{"entries":[{"id":" A ","score":1},{"id":"B","score":3}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var imported model.RankingImport
	decode(t, w, &imported)
	assert.Equal(t, 2, imported.Summary.Size)
	assert.Equal(t, []int{2}, imported.Unsorted)

	w = perform(router, http.MethodGet, "/rankings/sys", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got RankingResponse
	decode(t, w, &got)
	assert.Equal(t, "A", got.Entries[0].ID)
}

func TestGetRankingHandler_TSV(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))
	seedRankings(t, router)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", TSVContentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := get("/rankings/system")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), TSVContentType)
	assert.Equal(t, testutil.SystemTSV, w.Body.String())

	w = perform(router, http.MethodPut, "/rankings/scores", "application/json",
		`{"scores":{"a":1,"b":3,"c":1},"comments":{"b":"top"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get("/rankings/scores")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b\t3\ttop\na\t1\nc\t1\n", w.Body.String())

	w = get("/rankings/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRankingLifecycle(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))
	seedRankings(t, router)

	w := perform(router, http.MethodGet, "/rankings", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Rankings []model.RankingSummary `json:"rankings"`
		Total    int                    `json:"total"`
	}
	decode(t, w, &list)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "gold", list.Rankings[0].Name)

	w = perform(router, http.MethodGet, "/rankings/system", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got RankingResponse
	decode(t, w, &got)
	assert.Equal(t, 4, got.Size)
	assert.Equal(t, 3, got.NonZeroEntries)
	assert.Len(t, got.Entries, 4)

	w = perform(router, http.MethodDelete, "/rankings/system", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/rankings/system", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, ErrorCodeRankingNotFound, apiErr.Code)
}

func TestCreateComparisonHandler(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))
	seedRankings(t, router)

	tests := []struct {
		name           string
		query          string
		body           string
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{"valid", "", `{"gold":"gold","candidates":["system"]}`, http.StatusOK, ""},
		{"latex", "?format=latex", `{"gold":"gold","candidates":["system"]}`, http.StatusOK, ""},
		{"missing candidates", "", `{"gold":"gold"}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"unknown gold", "", `{"gold":"nope","candidates":["system"]}`, http.StatusNotFound, ErrorCodeRankingNotFound},
		{"invalid settings", "", `{"gold":"gold","candidates":["system"],"settings":{"cutoffs":[0]}}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"invalid json", "", `{`, http.StatusBadRequest, ErrorCodeInvalidJSON},
		{"invalid format", "?format=pdf", `{"gold":"gold","candidates":["system"]}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"invalid async", "?async=maybe", `{"gold":"gold","candidates":["system"]}`, http.StatusBadRequest, ErrorCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, http.MethodPost, "/comparisons"+tt.query, "application/json", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode != "" {
				var apiErr APIError
				decode(t, w, &apiErr)
				assert.Equal(t, tt.expectedCode, apiErr.Code)
			}
		})
	}
}

func TestCreateComparisonHandler_Report(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))
	seedRankings(t, router)

	w := perform(router, http.MethodPost, "/comparisons", "application/json", `{"gold":"gold","candidates":["system"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var r model.Report
	decode(t, w, &r)
	require.Len(t, r.Entries, 1)
	assert.InDelta(t, 0.35, r.Entries[0].MeanSpearman.Float(), 1e-9)

	w = perform(router, http.MethodGet, "/comparisons/"+r.ID+"?format=latex", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `\begin{tabular}{lc|rrc}`))

	w = perform(router, http.MethodGet, "/comparisons/"+r.ID+"?format=text", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "system")

	w = perform(router, http.MethodGet, "/comparisons", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Comparisons []model.ReportSummary `json:"comparisons"`
	}
	decode(t, w, &list)
	require.Len(t, list.Comparisons, 1)
	assert.Equal(t, "system", list.Comparisons[0].Best)

	w = perform(router, http.MethodDelete, "/comparisons/"+r.ID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = perform(router, http.MethodGet, "/comparisons/"+r.ID, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateComparisonHandler_Async(t *testing.T) {
	eng := setupTestEngine(t)
	router := setupTestRouter(eng)
	seedRankings(t, router)

	w := perform(router, http.MethodPost, "/comparisons?async=true", "application/json", `{"gold":"gold","candidates":["system"]}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted struct {
		JobID string `json:"job_id"`
	}
	decode(t, w, &accepted)
	require.NotEmpty(t, accepted.JobID)

	job := testutil.WaitForJobCompletion(t, eng, accepted.JobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeCompare, "gold")
	require.NotEmpty(t, job.ReportID)

	w = perform(router, http.MethodGet, "/comparisons/"+job.ReportID, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(router, http.MethodGet, "/jobs?status=completed", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var jobs struct {
		Total int `json:"total"`
	}
	decode(t, w, &jobs)
	assert.Equal(t, 1, jobs.Total)

	w = perform(router, http.MethodDelete, "/jobs/"+accepted.JobID, "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(router, http.MethodGet, "/jobs/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobHandlers_Errors(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t))

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{"unknown job", http.MethodGet, "/jobs/missing", http.StatusNotFound, ErrorCodeJobNotFound},
		{"cancel unknown job", http.MethodDelete, "/jobs/missing", http.StatusNotFound, ErrorCodeJobNotFound},
		{"invalid status filter", http.MethodGet, "/jobs?status=done", http.StatusBadRequest, ErrorCodeValidationFailed},
		{"unknown report", http.MethodGet, "/comparisons/missing", http.StatusNotFound, ErrorCodeReportNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(router, tt.method, tt.path, "", "")
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			var apiErr APIError
			decode(t, w, &apiErr)
			assert.Equal(t, tt.expectedCode, apiErr.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := NewHTTPMetrics()
	require.NoError(t, httpMetrics.Register(reg))

	router := setupTestRouter(setupTestEngine(t),
		WithHTTPMetrics(httpMetrics),
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	perform(router, http.MethodGet, "/health", "", "")
	w := perform(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rankcompare_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRateLimiting(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t), WithRateLimiter(NewRateLimiter(0.001, 2, time.Minute)))

	for i := 0; i < 2; i++ {
		w := perform(router, http.MethodGet, "/rankings", "", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := perform(router, http.MethodGet, "/rankings", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Health is not limited
	w = perform(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	router := setupTestRouter(setupTestEngine(t), WithMaxBodyBytes(8))

	body := bytes.Repeat([]byte("A\t1\n"), 10)
	w := perform(router, http.MethodPut, "/rankings/big", "text/plain", string(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, ErrorCodeBodyTooLarge, apiErr.Code)
}
