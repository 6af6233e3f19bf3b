package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/John-Robertt/doubanhot/internal/app/spider"
	"github.com/John-Robertt/doubanhot/internal/config"
	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/infra/fsx"
)

// sectionLabels 与 Dataset.Sections() 的顺序一一对应。
var sectionLabels = map[string]string{
	"movies.nowPlaying":       "电影 - 正在热映",
	"movies.weeklyRanking":    "电影 - 口碑榜单",
	"movies.top250":           "电影 - 豆瓣高分",
	"movies.newMovies":        "电影 - 最新电影",
	"movies.underratedMovies": "电影 - 冷门佳片",
	"tv.hot":                  "电视剧 - 热门",
	"tv.top250":               "电视剧 - TOP250",
	"variety.hot":             "综艺 - 热门",
	"anime.hot":               "动画 - 热门",
}

// samplePaths 是样例输出的子榜单（每个取前 3 条）。
var samplePaths = []string{"movies.nowPlaying", "tv.hot", "variety.hot", "anime.hot"}

// runFetch 抓取全部榜单，把统计与样例写到 stdout，并原子导出 JSON。
// 所有类别都为空时返回 1（通常意味着被上游拦截或网络不可用）。
func runFetch(ctx context.Context, eff config.EffectiveConfig, obs spider.Observer, stdout, stderr io.Writer) int {
	sp, err := newSpider(eff, obs)
	if err != nil {
		fmt.Fprintf(stderr, "初始化失败：%v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "开始爬取豆瓣电影数据...")
	ds := sp.All(ctx)

	printStats(stdout, ds)
	if err := writeDataset(eff.Out, ds); err != nil {
		fmt.Fprintf(stderr, "写入 %s 失败：%v\n", eff.Out, err)
		return 1
	}
	fmt.Fprintf(stdout, "数据已保存到 %s\n", eff.Out)
	printSamples(stdout, ds)

	if totalRecords(ds) == 0 {
		fmt.Fprintln(stderr, "所有类别均为空：请检查网络、代理或是否被豆瓣拦截")
		return 1
	}
	return 0
}

func printStats(w io.Writer, ds domain.Dataset) {
	fmt.Fprintln(w, "\n=== 数据统计 ===")
	for _, sec := range ds.Sections() {
		fmt.Fprintf(w, "%s: %d 部\n", sectionLabels[sec.Path()], len(sec.Records))
	}
}

func printSamples(w io.Writer, ds domain.Dataset) {
	byPath := make(map[string][]domain.Record, 9)
	for _, sec := range ds.Sections() {
		byPath[sec.Path()] = sec.Records
	}

	fmt.Fprintln(w, "\n=== 热门内容样例 ===")
	for _, p := range samplePaths {
		fmt.Fprintf(w, "%s:\n", sectionLabels[p])
		recs := byPath[p]
		for i := 0; i < len(recs) && i < 3; i++ {
			fmt.Fprintf(w, "  %d. %s (%s分)\n", i+1, recs[i].Title, formatScore(recs[i].Score))
		}
	}
}

func formatScore(s *float64) string {
	if s == nil {
		return "暂无"
	}
	return strconv.FormatFloat(*s, 'f', -1, 64)
}

func writeDataset(path string, ds domain.Dataset) error {
	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFile(path, b)
}

func totalRecords(ds domain.Dataset) int {
	n := 0
	for _, sec := range ds.Sections() {
		n += len(sec.Records)
	}
	return n
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度只在交互终端启用，并且只写 stderr（stdout 留给统计输出）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	return nil, false
}
