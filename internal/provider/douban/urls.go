package douban

import (
	"fmt"
	"net/url"
	"strings"
)

// BlockedHost 是豆瓣的安全验证域名；被重定向到这里说明请求被拦截。
const BlockedHost = "sec.douban.com"

// URLs 是各类别的上游地址。与 schemas.go 中的选择器耦合：上游改版时需同步修改。
type URLs struct {
	NowPlaying string `json:"now_playing"`
	Weekly     string `json:"weekly"`
	Top250     string `json:"top250"`
	NewMovies  string `json:"new_movies"`
	TVHot      string `json:"tv_hot"`
	TVTop250   string `json:"tv_top250"`
	VarietyHot string `json:"variety_hot"`
	AnimeHot   string `json:"anime_hot"`
}

func DefaultURLs() URLs {
	return URLs{
		NowPlaying: "https://movie.douban.com/cinema/nowplaying/",
		Weekly:     "https://movie.douban.com/chart",
		Top250:     "https://movie.douban.com/top250",
		NewMovies:  "https://movie.douban.com/",
		TVHot:      searchSubjects("tv", "热门"),
		TVTop250:   "https://movie.douban.com/top250?type=tv",
		VarietyHot: searchSubjects("tv", "综艺"),
		AnimeHot:   searchSubjects("tv", "日本动画"),
	}
}

func searchSubjects(typ, tag string) string {
	q := url.Values{}
	q.Set("type", typ)
	q.Set("tag", tag)
	q.Set("sort", "recommend")
	q.Set("page_limit", "20")
	q.Set("page_start", "0")
	return "https://movie.douban.com/j/search_subjects?" + q.Encode()
}

// Merge 用 o 中的非空字段覆盖 u。
func (u URLs) Merge(o URLs) URLs {
	pick := func(a, b string) string {
		if strings.TrimSpace(b) != "" {
			return strings.TrimSpace(b)
		}
		return a
	}
	return URLs{
		NowPlaying: pick(u.NowPlaying, o.NowPlaying),
		Weekly:     pick(u.Weekly, o.Weekly),
		Top250:     pick(u.Top250, o.Top250),
		NewMovies:  pick(u.NewMovies, o.NewMovies),
		TVHot:      pick(u.TVHot, o.TVHot),
		TVTop250:   pick(u.TVTop250, o.TVTop250),
		VarietyHot: pick(u.VarietyHot, o.VarietyHot),
		AnimeHot:   pick(u.AnimeHot, o.AnimeHot),
	}
}

// Validate 要求每个地址都是 http/https 绝对地址。
func (u URLs) Validate() error {
	for name, s := range map[string]string{
		"now_playing": u.NowPlaying,
		"weekly":      u.Weekly,
		"top250":      u.Top250,
		"new_movies":  u.NewMovies,
		"tv_hot":      u.TVHot,
		"tv_top250":   u.TVTop250,
		"variety_hot": u.VarietyHot,
		"anime_hot":   u.AnimeHot,
	} {
		p, err := url.Parse(s)
		if err != nil || p.Host == "" || (p.Scheme != "http" && p.Scheme != "https") {
			return fmt.Errorf("urls.%s 无效：%q", name, s)
		}
	}
	return nil
}
