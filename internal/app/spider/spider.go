// Package spider 是核心门面：按类别抓取 + 解析，并聚合为完整 Dataset。
//
// 所有对外方法都不返回错误：单个类别失败只会记录日志/指标并得到空列表。
package spider

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/logging"
	"github.com/John-Robertt/doubanhot/internal/metrics"
	"github.com/John-Robertt/doubanhot/internal/provider"
)

// DefaultConcurrency 是主批次同时进行的类别数上限。
const DefaultConcurrency = 4

type Options struct {
	Concurrency int
	Criteria    Criteria
	Observer    Observer
}

type Spider struct {
	reg  provider.Registry
	get  provider.Getter
	conc int
	crit Criteria
	obs  Observer
	now  func() time.Time
}

func New(reg provider.Registry, g provider.Getter, opts Options) *Spider {
	conc := opts.Concurrency
	if conc < 1 {
		conc = DefaultConcurrency
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Spider{
		reg:  reg,
		get:  g,
		conc: conc,
		crit: opts.Criteria.withDefaults(),
		obs:  obs,
		now:  time.Now,
	}
}

// Category 抓取单个类别；underrated 会先抓 top_250 再筛选。
func (s *Spider) Category(ctx context.Context, c domain.Category) []domain.Record {
	if c == domain.CategoryUnderrated {
		return s.Underrated(ctx)
	}
	return s.scrape(ctx, c)
}

func (s *Spider) NowPlaying(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryNowPlaying)
}

func (s *Spider) WeeklyRanking(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryWeeklyRanking)
}

func (s *Spider) Top250(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryTop250)
}

func (s *Spider) NewMovies(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryNewMovies)
}

func (s *Spider) TVHot(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryTVHot)
}

func (s *Spider) TVTop250(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryTVTop250)
}

func (s *Spider) VarietyHot(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryVarietyHot)
}

func (s *Spider) AnimeHot(ctx context.Context) []domain.Record {
	return s.scrape(ctx, domain.CategoryAnimeHot)
}

// Underrated 抓取 top_250 并筛选；top_250 失败时直接得到空列表。
func (s *Spider) Underrated(ctx context.Context) []domain.Record {
	started := time.Now()
	out := FilterUnderrated(s.Top250(ctx), s.crit)
	s.done(domain.CategoryUnderrated, out, started, nil)
	return out
}

// All 并发抓取主批次，等待全部分支结束后派生 underrated，再单独抓取 tv_top250。
// 永不失败：最坏情况下每个类别都是空数组。
func (s *Spider) All(ctx context.Context) domain.Dataset {
	started := time.Now()

	var ds domain.Dataset
	batch := []struct {
		c   domain.Category
		dst *[]domain.Record
	}{
		{domain.CategoryNowPlaying, &ds.Movies.NowPlaying},
		{domain.CategoryWeeklyRanking, &ds.Movies.WeeklyRanking},
		{domain.CategoryTop250, &ds.Movies.Top250},
		{domain.CategoryNewMovies, &ds.Movies.NewMovies},
		{domain.CategoryTVHot, &ds.TV.Hot},
		{domain.CategoryVarietyHot, &ds.Variety.Hot},
		{domain.CategoryAnimeHot, &ds.Anime.Hot},
	}

	var g errgroup.Group
	g.SetLimit(s.conc)
	for _, b := range batch {
		b := b
		g.Go(func() error {
			// 每个分支只写自己的字段，无需加锁。
			*b.dst = s.scrape(ctx, b.c)
			return nil
		})
	}
	_ = g.Wait()

	uStarted := time.Now()
	ds.Movies.UnderratedMovies = FilterUnderrated(ds.Movies.Top250, s.crit)
	s.done(domain.CategoryUnderrated, ds.Movies.UnderratedMovies, uStarted, nil)

	// tv_top250 与主批次同域，放在批次之后以限制并发连接数。
	ds.TV.Top250 = s.scrape(ctx, domain.CategoryTVTop250)

	ds.Normalize()
	ds.Timestamp = s.now().UTC()

	dur := time.Since(started)
	metrics.AggregateDuration.Observe(dur.Seconds())
	logging.Info().Dur("duration", dur).Int("total", total(ds)).Msg("聚合完成")
	s.obs.OnAggregateDone(ds, dur)
	return ds
}

func (s *Spider) scrape(ctx context.Context, c domain.Category) []domain.Record {
	started := time.Now()
	p, ok := s.reg.Get(c)
	if !ok {
		err := &provider.Error{Category: c, Stage: provider.StageFetch, Err: errNoProvider}
		return s.fail(c, started, err)
	}
	recs, err := provider.FetchParse(ctx, p, s.get)
	if err != nil {
		return s.fail(c, started, err)
	}
	s.done(c, recs, started, nil)
	return recs
}

func (s *Spider) fail(c domain.Category, started time.Time, err error) []domain.Record {
	stage := provider.StageOf(err)
	metrics.CategoryFailures.WithLabelValues(string(c), stage).Inc()
	logging.Warn().
		Str("category", string(c)).
		Str("stage", stage).
		Err(err).
		Msg("类别抓取失败，降级为空列表")
	out := []domain.Record{}
	s.done(c, out, started, err)
	return out
}

func (s *Spider) done(c domain.Category, recs []domain.Record, started time.Time, err error) {
	dur := time.Since(started)
	if err == nil {
		metrics.CategoryRecords.WithLabelValues(string(c)).Set(float64(len(recs)))
		logging.Debug().Str("category", string(c)).Int("count", len(recs)).Dur("duration", dur).Msg("类别完成")
	}
	s.obs.OnCategoryDone(c, len(recs), dur, err)
}

func total(ds domain.Dataset) int {
	n := 0
	for _, sec := range ds.Sections() {
		n += len(sec.Records)
	}
	return n
}

var errNoProvider = errors.New("未注册该类别的 provider")
