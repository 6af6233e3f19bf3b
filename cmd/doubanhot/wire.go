package main

import (
	"context"
	"time"

	"github.com/John-Robertt/doubanhot/internal/app/spider"
	"github.com/John-Robertt/doubanhot/internal/config"
	"github.com/John-Robertt/doubanhot/internal/infra/cache"
	"github.com/John-Robertt/doubanhot/internal/infra/httpx"
	"github.com/John-Robertt/doubanhot/internal/logging"
	"github.com/John-Robertt/doubanhot/internal/provider/douban"
)

// newSpider 按配置组装 UA 池、HTTP 客户端、Fetcher 与 provider 注册表。
func newSpider(eff config.EffectiveConfig, obs spider.Observer) (*spider.Spider, error) {
	pool := httpx.NewUAPool(eff.UserAgents)
	client, err := httpx.NewClient(eff.ProxyURL, pool)
	if err != nil {
		return nil, err
	}
	fetcher := httpx.NewFetcher(client, pool, httpx.Options{
		MaxAttempts:  eff.MaxAttempts,
		Timeout:      eff.Timeout,
		BaseDelay:    eff.BaseDelay,
		RPS:          eff.RPS,
		Burst:        eff.Burst,
		Breaker:      eff.Breaker,
		BlockedHosts: eff.BlockedHosts,
	})
	reg, err := douban.NewRegistry(eff.URLs)
	if err != nil {
		return nil, err
	}
	return spider.New(reg, fetcher, spider.Options{
		Concurrency: eff.Concurrency,
		Criteria: spider.Criteria{
			MinScore: eff.MinScore,
			MaxVotes: eff.MaxVotes,
			Limit:    eff.UnderratedLimit,
		},
		Observer: obs,
	}), nil
}

// newCache 按配置选择存储；redis 启动时不可达则回退到内存存储。
func newCache(ctx context.Context, eff config.EffectiveConfig) (*cache.Cache, func()) {
	opts := cache.Options{TTL: eff.CacheTTL, Coalesce: eff.Coalesce}
	closeFn := func() {}

	var store cache.Store
	switch eff.CacheBackend {
	case config.CacheFile:
		store = cache.NewFileStore(eff.CacheDir)
	case config.CacheRedis:
		rs, err := cache.NewRedisStore(eff.RedisURL)
		if err != nil {
			logging.Warn().Err(err).Msg("redis 配置无效，回退到内存缓存")
			break
		}
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rs.Ping(pctx)
		cancel()
		if err != nil {
			_ = rs.Close()
			logging.Warn().Err(err).Msg("redis 不可达，回退到内存缓存")
			break
		}
		store = rs
		closeFn = func() { _ = rs.Close() }
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	logging.Info().
		Str("backend", eff.CacheBackend).
		Dur("ttl", opts.TTL).
		Bool("coalesce", opts.Coalesce).
		Msg("缓存已就绪")
	return cache.New(store, opts), closeFn
}
