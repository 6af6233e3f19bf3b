package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/infra/cache"
	"github.com/John-Robertt/doubanhot/internal/query"
)

type stubCore struct {
	mu       sync.Mutex
	allCalls int
	catCalls map[domain.Category]int
	ctxErr   error
}

func score(v float64) *float64 { return &v }

func (c *stubCore) Category(ctx context.Context, cat domain.Category) []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catCalls == nil {
		c.catCalls = map[domain.Category]int{}
	}
	c.catCalls[cat]++
	c.ctxErr = ctx.Err()
	return []domain.Record{{Title: string(cat) + " 条目", Type: cat, Score: score(8.1)}}
}

func (c *stubCore) All(context.Context) domain.Dataset {
	c.mu.Lock()
	c.allCalls++
	c.mu.Unlock()
	ds := domain.Dataset{
		Movies: domain.MovieLists{
			Top250: []domain.Record{
				{Title: "肖申克的救赎", Type: domain.CategoryTop250, Score: score(9.7)},
				{Title: "Star Wars", Type: domain.CategoryTop250},
			},
		},
		TV:        domain.TVLists{Hot: []domain.Record{{Title: "star trek", Type: domain.CategoryTVHot}}},
		Timestamp: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	ds.Normalize()
	return ds
}

func newTestServer(t *testing.T) (*stubCore, http.Handler) {
	t.Helper()
	core := &stubCore{}
	h := NewRouter(core, cache.New(cache.NewMemoryStore(), cache.Options{}), Options{
		Now: func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) },
	})
	return core, h
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2026-10-19T08:00:00Z", body["timestamp"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCategoryRoutes_CachedByKey(t *testing.T) {
	core, h := newTestServer(t)
	for _, cr := range categoryRoutes {
		for i := 0; i < 2; i++ {
			rec := get(t, h, cr.Path)
			require.Equal(t, http.StatusOK, rec.Code, cr.Path)
			recs := decode[[]domain.Record](t, rec)
			require.Len(t, recs, 1, cr.Path)
			assert.Equal(t, cr.Category, recs[0].Type)
		}
		assert.Equal(t, 1, core.catCalls[cr.Category], "%s 第二次请求应命中缓存", cr.Path)
	}
	assert.NoError(t, core.ctxErr)
}

func TestAll_SharedBySearchAndStats(t *testing.T) {
	core, h := newTestServer(t)

	rec := get(t, h, "/api/all")
	require.Equal(t, http.StatusOK, rec.Code)
	ds := decode[domain.Dataset](t, rec)
	assert.Len(t, ds.Movies.Top250, 2)
	assert.Contains(t, rec.Body.String(), `"underratedMovies":[]`)
	assert.Contains(t, rec.Body.String(), `"variety":{"hot":[]}`)

	rec = get(t, h, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[query.Stats](t, rec)
	assert.Equal(t, query.Totals{Movies: 2, TV: 1}, st.Totals)

	rec = get(t, h, "/api/search?q=STAR")
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[[]map[string]any](t, rec)
	require.Len(t, hits, 2)
	assert.Equal(t, "movies.top250", hits[0]["category"])
	assert.Equal(t, "tv.hot", hits[1]["category"])

	assert.Equal(t, 1, core.allCalls, "all/stats/search 应复用同一份缓存的 Dataset")
}

func TestSearch_Validation(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/api/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Missing query parameter "q"`, decode[map[string]string](t, rec)["error"])

	rec = get(t, h, "/api/search?q=x&type=books")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/search?q=x&limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/search?q=x&limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_ScopeAndLimit(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/api/search?q=star&type=tv&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[[]query.Hit](t, rec)
	require.Len(t, hits, 1)
	assert.Equal(t, "star trek", hits[0].Title)

	rec = get(t, h, "/api/search?q=star&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]query.Hit](t, rec), 1)
}

func TestIndexAndNotFound(t *testing.T) {
	_, h := newTestServer(t)

	rec := get(t, h, "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/movies/underrated")

	rec = get(t, h, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[map[string]string](t, rec)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t)
	_ = get(t, h, "/api/movies/top250")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doubanhot_api_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/all", nil)
	req.Header.Set("Origin", "https://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	core := &stubCore{}
	h := NewRouter(core, cache.New(nil, cache.Options{}), Options{RateLimit: 2})
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(t, h, "/api/tv/hot").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/api/tv/hot").Code)
	// /health 不受限流影响
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	_, h := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, h) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve 未在取消后返回")
	}
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "search_星际_all_10", SearchKey("星际", "all", 10))
}
