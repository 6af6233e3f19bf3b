// Package api 把核心门面暴露为只读 JSON HTTP 接口；每个接口都包在 TTL 缓存里。
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/infra/cache"
	"github.com/John-Robertt/doubanhot/internal/logging"
	"github.com/John-Robertt/doubanhot/internal/query"
)

// Core 是 api 依赖的核心门面（*spider.Spider 满足）。方法永不失败。
type Core interface {
	Category(ctx context.Context, c domain.Category) []domain.Record
	All(ctx context.Context) domain.Dataset
}

type Options struct {
	CORSOrigins []string
	// RateLimit 是每个 IP 每分钟的请求上限；<= 0 表示关闭。
	RateLimit int
	// Now 用于 /health 的时间戳；nil 表示 time.Now。
	Now func() time.Time
}

type Server struct {
	core  Core
	cache *cache.Cache
	now   func() time.Time
}

// NewRouter 构造完整的路由树。
func NewRouter(core Core, c *cache.Cache, opts Options) http.Handler {
	s := &Server{core: core, cache: c, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(observe)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(opts.CORSOrigins))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(opts.RateLimit))
		r.Get("/", s.index)
		r.Get("/all", s.all)
		for _, cr := range categoryRoutes {
			r.Get(strings.TrimPrefix(cr.Path, "/api"), s.category(cr))
		}
		r.Get("/search", s.search)
		r.Get("/stats", s.stats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// produceCtx 与请求取消解耦：客户端断开不会让 producer 得到半截结果并被缓存。
func produceCtx(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "doubanhot",
		"endpoints": endpoints(),
	})
}

func (s *Server) dataset(ctx context.Context) (domain.Dataset, error) {
	return cache.GetCached(ctx, s.cache, KeyAll, func(ctx context.Context) (domain.Dataset, error) {
		return s.core.All(ctx), nil
	})
}

func (s *Server) all(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(produceCtx(r))
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) category(cr categoryRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := cache.GetCached(produceCtx(r), s.cache, cr.Key, func(ctx context.Context) ([]domain.Record, error) {
			return s.core.Category(ctx, cr.Category), nil
		})
		if err != nil {
			s.internal(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()
	q := strings.TrimSpace(qv.Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, `Missing query parameter "q"`)
		return
	}
	scope, err := query.ParseScope(qv.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, `Invalid parameter "type": must be one of all, movies, tv, variety, anime`)
		return
	}
	limit := query.DefaultLimit
	if raw := strings.TrimSpace(qv.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, `Invalid parameter "limit": must be a positive integer`)
			return
		}
		limit = min(n, query.MaxLimit)
	}

	key := SearchKey(q, string(scope), limit)
	hits, err := cache.GetCached(produceCtx(r), s.cache, key, func(ctx context.Context) ([]query.Hit, error) {
		ds, err := s.dataset(ctx)
		if err != nil {
			return nil, err
		}
		return query.Search(ds, q, scope, limit)
	})
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := cache.GetCached(produceCtx(r), s.cache, KeyStats, func(ctx context.Context) (query.Stats, error) {
		ds, err := s.dataset(ctx)
		if err != nil {
			return query.Stats{}, err
		}
		return query.ComputeStats(ds), nil
	})
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("请求处理失败")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("响应编码失败")
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func itoa(n int) string { return strconv.Itoa(n) }
