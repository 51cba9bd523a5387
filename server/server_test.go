package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/contentscore/analyzer"
	"github.com/seo-optimizer/contentscore/cache"
	"github.com/seo-optimizer/contentscore/config"
	"github.com/seo-optimizer/contentscore/logging"
	"github.com/seo-optimizer/contentscore/middleware"
	"github.com/seo-optimizer/contentscore/redirects"
	"github.com/seo-optimizer/contentscore/stats"
	"github.com/seo-optimizer/contentscore/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	*Server
	monthly *stats.Storage
	usage   *logging.Statistics
}

func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.SiteOrigin = "https://example.com"
	cfg.RateLimit = config.RateLimitConfig{RPS: 1000, Burst: 1000}
	for _, m := range mutate {
		m(&cfg)
	}

	st, err := store.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	monthly, err := stats.NewStorage(dir)
	require.NoError(t, err)
	reports := cache.New(time.Minute, 100, cache.WithRecorder(monthly))
	usage := logging.NewStatistics(cfg.StatisticsPath())

	t.Cleanup(func() {
		reports.Close()
		assert.NoError(t, monthly.Shutdown())
		assert.NoError(t, st.Close())
	})

	srv, err := New(cfg, st, reports, monthly, usage)
	require.NoError(t, err)
	return &testServer{Server: srv, monthly: monthly, usage: usage}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func hasDimension(findings []analyzer.Finding, dimension string) bool {
	for _, f := range findings {
		if f.Dimension == dimension {
			return true
		}
	}
	return false
}

const article = `<h1>Brewing better coffee</h1>
<p>Good coffee starts with fresh beans. Grind them right before you brew.</p>
<h2>Water and coffee</h2>
<p>Use water just off the boil. Weigh your coffee so every cup tastes the same.</p>`

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodOptions, "/api/analyze", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyze_Cached(t *testing.T) {
	ts := setupTestServer(t)
	body := map[string]string{
		"content":      article,
		"focusKeyword": "coffee",
		"metaTitle":    "Brewing better coffee at home",
		"slug":         "better-coffee",
	}

	first := ts.do(t, http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := ts.do(t, http.MethodPost, "/api/analyze", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	report := decode[analyzer.Report](t, first)
	assert.Positive(t, report.WordCount)
	assert.Equal(t, "coffee", report.Keyword.Keyword)
	require.NotNil(t, report.SEO)
	require.NotNil(t, report.Readability)
	require.NotNil(t, report.SEOScore)

	cs := ts.cache.Stats()
	assert.Equal(t, int64(1), cs.Hits)
	assert.Equal(t, int64(1), cs.Misses)
	assert.Equal(t, 1, cs.Entries)

	month := ts.monthly.GetCurrentStats()
	assert.Equal(t, 1, month.Analyses)
	assert.Equal(t, 1, month.CacheHits)
	assert.Equal(t, 1, month.CacheMisses)

	assert.Equal(t, 2, ts.usage.TotalRequests())
	assert.Equal(t, []logging.KeywordCount{{Keyword: "coffee", Count: 2}}, ts.usage.GetPopularKeywords(5))
}

func TestAnalyze_BadRequest(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/analyze", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid analysis request"}`, w.Body.String())
}

func TestAnalyze_BackfillsFromStoredDocument(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodPut, "/api/documents/doc-1", map[string]string{
		"content":      article,
		"focusKeyword": "coffee",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/analyze", map[string]string{
		"content":    article,
		"documentId": "doc-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	report := decode[analyzer.Report](t, w)
	assert.Equal(t, "doc-1", report.DocumentID)
	assert.Equal(t, "coffee", report.Keyword.Keyword)
	assert.Positive(t, report.Keyword.Count)

	w = ts.do(t, http.MethodPost, "/api/analyze", map[string]string{
		"documentId": "doc-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[analyzer.Report](t, w)
	assert.Equal(t, report.WordCount, stored.WordCount)
	assert.Equal(t, report.Keyword.Count, stored.Keyword.Count)
}

func TestAnalyze_DocumentWriteDropsInFlightReport(t *testing.T) {
	ts := setupTestServer(t)
	req := map[string]string{"content": article, "focusKeyword": "coffee"}

	// a report computed before a document write must not be cached after it
	gen := ts.cache.Generation()
	w := ts.do(t, http.MethodPut, "/api/documents/doc-1", map[string]string{
		"content":      article,
		"focusKeyword": "coffee",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ts.cache.PutIfCurrent("in-flight", &analyzer.Report{}, gen))

	w = ts.do(t, http.MethodPost, "/api/analyze", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ts.cache.Stats().Entries)

	w = ts.do(t, http.MethodDelete, "/api/documents/doc-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, ts.cache.Stats().Entries)
}

func TestDocuments_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/documents/doc-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPut, "/api/documents/doc-1", map[string]string{
		"title":        "Coffee",
		"content":      article,
		"focusKeyword": "  coffee ",
	})
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[store.DocumentRecord](t, w)
	assert.Equal(t, "doc-1", saved.ID)
	assert.Equal(t, "coffee", saved.FocusKeyword)

	w = ts.do(t, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.DocumentRecord](t, w), 1)

	w = ts.do(t, http.MethodGet, "/api/documents/doc-1/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/documents/doc-1/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[analyzer.Report](t, w)
	assert.Equal(t, "doc-1", report.DocumentID)

	w = ts.do(t, http.MethodGet, "/api/documents/doc-1/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stored := decode[store.ReportRecord](t, w)
	assert.Equal(t, report.SEOScore.Score, stored.Report.SEOScore.Score)
	assert.Equal(t, 1, ts.monthly.GetCurrentStats().Analyses)

	w = ts.do(t, http.MethodDelete, "/api/documents/doc-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/api/documents/doc-1/report", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/documents/doc-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodPost, "/api/documents/doc-1/analyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocuments_KeyphraseReuse(t *testing.T) {
	ts := setupTestServer(t)
	for _, id := range []string{"a", "b"} {
		w := ts.do(t, http.MethodPut, "/api/documents/"+id, map[string]string{
			"content":      article,
			"focusKeyword": "coffee",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := ts.do(t, http.MethodPut, "/api/documents/c", map[string]string{
		"content":      article,
		"focusKeyword": "espresso",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/documents/b/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[analyzer.Report](t, w)
	assert.True(t, hasDimension(report.SEO.Problems, analyzer.DimPreviouslyUsed))

	w = ts.do(t, http.MethodPost, "/api/documents/c/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report = decode[analyzer.Report](t, w)
	assert.True(t, hasDimension(report.SEO.Good, analyzer.DimPreviouslyUsed))
}

func TestRedirects(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/redirects", map[string]any{
		"source": "/Old-Page/",
		"target": "/new-page",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	exact := decode[redirects.Redirect](t, w)
	assert.Equal(t, "/old-page", exact.Source)
	assert.Equal(t, redirects.DefaultStatus, exact.Status)

	w = ts.do(t, http.MethodPost, "/api/redirects", map[string]any{
		"source": `^/blog/(\d+)$`,
		"target": "/posts/$1",
		"status": 302,
		"regex":  true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/redirects/resolve?path=/old-page%3Fref%3Dnav", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"target":"/new-page","status":301}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/redirects/resolve?path=/blog/42", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"target":"/posts/42","status":302}`, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/redirects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode[[]redirects.Redirect](t, w)
	require.Len(t, rules, 2)
	assert.Equal(t, int64(1), rules[0].Hits)

	w = ts.do(t, http.MethodDelete, "/api/redirects/"+strconv.FormatInt(exact.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, "/api/redirects/resolve?path=/old-page", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirects_Errors(t *testing.T) {
	ts := setupTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing source", http.MethodPost, "/api/redirects", map[string]any{"target": "/x"}, http.StatusBadRequest},
		{"bad pattern", http.MethodPost, "/api/redirects", map[string]any{"source": "(", "target": "/x", "regex": true}, http.StatusBadRequest},
		{"bad status", http.MethodPost, "/api/redirects", map[string]any{"source": "/a", "target": "/x", "status": 404}, http.StatusBadRequest},
		{"missing target", http.MethodPost, "/api/redirects", map[string]any{"source": "/a"}, http.StatusBadRequest},
		{"bad id", http.MethodDelete, "/api/redirects/abc", nil, http.StatusBadRequest},
		{"unknown id", http.MethodDelete, "/api/redirects/999", nil, http.StatusNotFound},
		{"missing path", http.MethodGet, "/api/redirects/resolve", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRedirects_GoneRule(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/redirects", map[string]any{"source": "/retired", "status": 410})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/redirects/resolve?path=/retired/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"target":"","status":410}`, w.Body.String())
}

func TestNotFoundLog(t *testing.T) {
	ts := setupTestServer(t)
	for _, p := range []string{"/missing", "/Missing/", "/other"} {
		w := ts.do(t, http.MethodGet, "/api/redirects/resolve?path="+p, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/not-found", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]store.NotFoundEntry](t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, "/missing", entries[0].URL)
	assert.Equal(t, int64(2), entries[0].Hits)

	w = ts.do(t, http.MethodGet, "/api/not-found?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]store.NotFoundEntry](t, w), 1)

	w = ts.do(t, http.MethodGet, "/api/not-found?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaintain_PurgesNotFound(t *testing.T) {
	ts := setupTestServer(t, func(c *config.Config) {
		c.NotFound.Retention = -time.Hour
	})
	ts.do(t, http.MethodGet, "/api/redirects/resolve?path=/gone", nil)

	ts.maintain()

	w := ts.do(t, http.MethodGet, "/api/not-found", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]store.NotFoundEntry](t, w))
}

func TestStatistics(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodPost, "/api/analyze", map[string]string{"content": article, "focusKeyword": "coffee"})

	w := ts.do(t, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[map[string]any](t, w)
	assert.Equal(t, 1.0, out["totalRequests"])
	assert.Contains(t, out, "currentMonth")
	assert.NotContains(t, out, "popularKeywords")

	dev := setupTestServer(t, func(c *config.Config) { c.DevMode = true })
	w = dev.do(t, http.MethodGet, "/api/statistics", nil)
	assert.Contains(t, decode[map[string]any](t, w), "popularKeywords")
}

func TestCacheEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[cache.Stats](t, w)
	assert.Equal(t, 100, out.MaxEntries)
	assert.Equal(t, time.Minute, out.TTL)
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(c *config.Config) {
		c.RateLimit = config.RateLimitConfig{RPS: 0.001, Burst: 1}
	})
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(t, http.MethodGet, "/api/health", nil).Code)
}
