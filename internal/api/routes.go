package api

import "github.com/John-Robertt/doubanhot/internal/domain"

// 缓存键是对外契约的一部分：多实例共享 redis 时必须保持一致。
const (
	KeyAll   = "all"
	KeyStats = "stats"
)

type categoryRoute struct {
	Path     string
	Key      string
	Category domain.Category
}

var categoryRoutes = []categoryRoute{
	{"/api/movies/now-playing", "movies_now_playing", domain.CategoryNowPlaying},
	{"/api/movies/weekly", "movies_weekly", domain.CategoryWeeklyRanking},
	{"/api/movies/top250", "movies_top250", domain.CategoryTop250},
	{"/api/movies/new", "movies_new", domain.CategoryNewMovies},
	{"/api/movies/underrated", "movies_underrated", domain.CategoryUnderrated},
	{"/api/tv/hot", "tv_hot", domain.CategoryTVHot},
	{"/api/tv/top250", "tv_top250", domain.CategoryTVTop250},
	{"/api/variety/hot", "variety_hot", domain.CategoryVarietyHot},
	{"/api/anime/hot", "anime_hot", domain.CategoryAnimeHot},
}

// SearchKey 组合搜索结果的缓存键：search_{q}_{type}_{limit}。
func SearchKey(q, scope string, limit int) string {
	return "search_" + q + "_" + scope + "_" + itoa(limit)
}

type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func endpoints() []endpoint {
	out := []endpoint{
		{"GET", "/health", "健康检查"},
		{"GET", "/api/all", "全部数据"},
	}
	for _, r := range categoryRoutes {
		out = append(out, endpoint{"GET", r.Path, string(r.Category)})
	}
	return append(out,
		endpoint{"GET", "/api/search?q=&type=&limit=", "按标题搜索"},
		endpoint{"GET", "/api/stats", "统计信息"},
		endpoint{"GET", "/metrics", "Prometheus 指标"},
	)
}
