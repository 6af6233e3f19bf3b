package douban

import (
	"context"
	"fmt"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/extract"
	"github.com/John-Robertt/doubanhot/internal/infra/httpx"
	"github.com/John-Robertt/doubanhot/internal/provider"
)

var (
	_ provider.Provider = MarkupProvider{}
	_ provider.Provider = SubjectsProvider{}
)

// MarkupProvider 抓取服务端渲染页面，并按 Schema 抽取条目。
type MarkupProvider struct {
	URL    string
	Schema extract.Schema
}

func (p MarkupProvider) Category() domain.Category { return p.Schema.Category }

func (p MarkupProvider) Fetch(ctx context.Context, g provider.Getter) ([]byte, error) {
	return g.Get(ctx, p.URL, httpx.KindHTML)
}

func (p MarkupProvider) Parse(body []byte) ([]domain.Record, error) {
	return p.Schema.Parse(body)
}

// SubjectsProvider 抓取 search_subjects JSON 接口。
type SubjectsProvider struct {
	URL  string
	Kind domain.Category
}

func (p SubjectsProvider) Category() domain.Category { return p.Kind }

func (p SubjectsProvider) Fetch(ctx context.Context, g provider.Getter) ([]byte, error) {
	return g.Get(ctx, p.URL, httpx.KindJSON)
}

func (p SubjectsProvider) Parse(body []byte) ([]domain.Record, error) {
	return extract.Subjects(p.Kind, body)
}

// Providers 返回全部可抓取类别的 provider（underrated 是派生类别，不在其中）。
func Providers(u URLs) []provider.Provider {
	return []provider.Provider{
		MarkupProvider{URL: u.NowPlaying, Schema: NowPlayingSchema},
		MarkupProvider{URL: u.Weekly, Schema: WeeklySchema},
		MarkupProvider{URL: u.Top250, Schema: Top250Schema},
		MarkupProvider{URL: u.NewMovies, Schema: NewMoviesSchema},
		MarkupProvider{URL: u.TVTop250, Schema: TVTop250Schema},
		SubjectsProvider{URL: u.TVHot, Kind: domain.CategoryTVHot},
		SubjectsProvider{URL: u.VarietyHot, Kind: domain.CategoryVarietyHot},
		SubjectsProvider{URL: u.AnimeHot, Kind: domain.CategoryAnimeHot},
	}
}

// NewRegistry 校验 Schema 并构造注册表。
func NewRegistry(u URLs) (provider.Registry, error) {
	for _, s := range []extract.Schema{NowPlayingSchema, WeeklySchema, Top250Schema, NewMoviesSchema, TVTop250Schema} {
		if err := s.Validate(); err != nil {
			return provider.Registry{}, fmt.Errorf("schema 无效：%w", err)
		}
	}
	return provider.NewRegistry(Providers(u)...)
}
