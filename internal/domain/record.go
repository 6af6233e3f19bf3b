package domain

// Category 是榜单类别标签；每个 extractor 固定产出一种类别。
type Category string

const (
	CategoryNowPlaying    Category = "now_playing"
	CategoryWeeklyRanking Category = "weekly_ranking"
	CategoryTop250        Category = "top_250"
	CategoryNewMovies     Category = "new_movies"
	CategoryUnderrated    Category = "underrated"
	CategoryTVHot         Category = "tv_hot"
	CategoryTVTop250      Category = "tv_top250"
	CategoryVarietyHot    Category = "variety_hot"
	CategoryAnimeHot      Category = "anime_hot"
)

// Categories 按固定顺序列出全部类别（underrated 是派生类别，不对应上游页面）。
func Categories() []Category {
	return []Category{
		CategoryNowPlaying,
		CategoryWeeklyRanking,
		CategoryTop250,
		CategoryNewMovies,
		CategoryUnderrated,
		CategoryTVHot,
		CategoryTVTop250,
		CategoryVarietyHot,
		CategoryAnimeHot,
	}
}

func (c Category) Valid() bool {
	for _, x := range Categories() {
		if c == x {
			return true
		}
	}
	return false
}

// Record 是所有类别统一的输出单元（NormalizedRecord）。
//
// 约束：
// - Title 必填；解析不到标题的条目直接丢弃，不会以空标题输出
// - Score 缺失/无法解析时为 nil（“暂无评分”有意义，不等于 0）
// - Votes 只在携带评价人数的类别中出现；无法解析时为 0
// - 其余字段按类别可选，缺失即省略
type Record struct {
	Title string   `json:"title"`
	Score *float64 `json:"score"`

	Rank  *int `json:"rank,omitempty"`
	Votes *int `json:"votes,omitempty"`

	ReleaseDate string   `json:"releaseDate,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Region      string   `json:"region,omitempty"`
	Directors   []string `json:"directors,omitempty"`
	Actors      []string `json:"actors,omitempty"`
	Quote       string   `json:"quote,omitempty"`
	Description string   `json:"description,omitempty"`

	Poster string `json:"poster,omitempty"`
	Link   string `json:"link,omitempty"`

	Type Category `json:"type"`
}

// HasScore 报告是否有评分。
func (r Record) HasScore() bool { return r.Score != nil }

// VoteCount 返回评价人数；未携带时视为 0。
func (r Record) VoteCount() int {
	if r.Votes == nil {
		return 0
	}
	return *r.Votes
}
