package domain

import "time"

// Dataset 是一次全量聚合的结果。
//
// 约束：每个类别键始终存在且为数组（可能为空）；某个类别失败只会得到空数组，
// 不会缺键，也不会让整体失败。调用 Normalize 保证 nil 切片被替换为空切片。
type Dataset struct {
	Movies    MovieLists `json:"movies"`
	TV        TVLists    `json:"tv"`
	Variety   HotList    `json:"variety"`
	Anime     HotList    `json:"anime"`
	Timestamp time.Time  `json:"timestamp"`
}

type MovieLists struct {
	NowPlaying       []Record `json:"nowPlaying"`
	WeeklyRanking    []Record `json:"weeklyRanking"`
	Top250           []Record `json:"top250"`
	NewMovies        []Record `json:"newMovies"`
	UnderratedMovies []Record `json:"underratedMovies"`
}

type TVLists struct {
	Hot    []Record `json:"hot"`
	Top250 []Record `json:"top250"`
}

type HotList struct {
	Hot []Record `json:"hot"`
}

// Section 是 Dataset 中的一个子榜单，Group/Name 与 JSON 路径一致（例如 movies.top250）。
type Section struct {
	Group   string
	Name    string
	Records []Record
}

// Path 返回 "group.name" 形式的类别路径。
func (s Section) Path() string { return s.Group + "." + s.Name }

const (
	GroupMovies  = "movies"
	GroupTV      = "tv"
	GroupVariety = "variety"
	GroupAnime   = "anime"
)

// Groups 按输出顺序列出顶层分组。
func Groups() []string {
	return []string{GroupMovies, GroupTV, GroupVariety, GroupAnime}
}

// Sections 以固定顺序返回全部子榜单（与 JSON 字段顺序一致）。
func (d *Dataset) Sections() []Section {
	return []Section{
		{GroupMovies, "nowPlaying", d.Movies.NowPlaying},
		{GroupMovies, "weeklyRanking", d.Movies.WeeklyRanking},
		{GroupMovies, "top250", d.Movies.Top250},
		{GroupMovies, "newMovies", d.Movies.NewMovies},
		{GroupMovies, "underratedMovies", d.Movies.UnderratedMovies},
		{GroupTV, "hot", d.TV.Hot},
		{GroupTV, "top250", d.TV.Top250},
		{GroupVariety, "hot", d.Variety.Hot},
		{GroupAnime, "hot", d.Anime.Hot},
	}
}

// Normalize 把所有 nil 切片替换为空切片，保证 JSON 中每个键都是 []，而不是 null。
func (d *Dataset) Normalize() {
	for _, p := range []*[]Record{
		&d.Movies.NowPlaying,
		&d.Movies.WeeklyRanking,
		&d.Movies.Top250,
		&d.Movies.NewMovies,
		&d.Movies.UnderratedMovies,
		&d.TV.Hot,
		&d.TV.Top250,
		&d.Variety.Hot,
		&d.Anime.Hot,
	} {
		if *p == nil {
			*p = []Record{}
		}
	}
}
