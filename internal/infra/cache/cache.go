// Package cache 是按 key 的 TTL 缓存：命中当且仅当条目存在且 now - fetchedAt < TTL。
//
// 只有 producer 成功返回后才写入；producer 出错时不写入任何东西。
// 值以 JSON 编码后存入 Store，因此内存/文件/redis 存储可以互换。
package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/John-Robertt/doubanhot/internal/logging"
	"github.com/John-Robertt/doubanhot/internal/metrics"
)

// DefaultTTL 是默认新鲜窗口。
const DefaultTTL = 30 * time.Minute

type Options struct {
	TTL time.Duration
	// Coalesce 为 true 时同一 key 同时只有一个 producer 在运行，其余调用方共享结果。
	Coalesce bool
	// Now 用于测试注入时钟；nil 表示 time.Now。
	Now func() time.Time
}

type Cache struct {
	store    Store
	ttl      time.Duration
	coalesce bool
	now      func() time.Time
	flights  singleflight.Group
}

// New 创建缓存；store 为 nil 时使用内存存储。
func New(store Store, opts Options) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{store: store, ttl: ttl, coalesce: opts.Coalesce, now: now}
}

func (c *Cache) TTL() time.Duration { return c.ttl }

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultStale = "stale"
	resultError = "error"
)

// GetCached 返回 key 的新鲜值；否则运行 produce，成功后以 produce 开始前的时间写入。
//
// Store 出错只会降级为未命中（读）或不写入（写），并记录日志；produce 的错误原样返回。
func GetCached[T any](ctx context.Context, c *Cache, key string, produce func(context.Context) (T, error)) (T, error) {
	v, result := lookup[T](ctx, c, key)
	metrics.CacheLookups.WithLabelValues(result).Inc()
	if result == resultHit {
		return v, nil
	}
	if !c.coalesce {
		return compute(ctx, c, key, produce)
	}

	shared, err, _ := c.flights.Do(key, func() (any, error) {
		// 排队期间前一个 flight 可能已经写入。
		if v, r := lookup[T](ctx, c, key); r == resultHit {
			return v, nil
		}
		return compute(ctx, c, key, produce)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return shared.(T), nil
}

func lookup[T any](ctx context.Context, c *Cache, key string) (T, string) {
	var zero T
	e, ok, err := c.store.Load(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("缓存读取失败，按未命中处理")
		return zero, resultError
	}
	if !ok {
		return zero, resultMiss
	}
	if c.now().Sub(e.FetchedAt) >= c.ttl {
		return zero, resultStale
	}
	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("缓存条目解码失败，按未命中处理")
		return zero, resultError
	}
	return v, resultHit
}

func compute[T any](ctx context.Context, c *Cache, key string, produce func(context.Context) (T, error)) (T, error) {
	fetchedAt := c.now()
	v, err := produce(ctx)
	if err != nil {
		return v, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("缓存值编码失败，跳过写入")
		return v, nil
	}
	if err := c.store.Save(ctx, key, Entry{Value: b, FetchedAt: fetchedAt}, c.ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("缓存写入失败")
	}
	return v, nil
}
