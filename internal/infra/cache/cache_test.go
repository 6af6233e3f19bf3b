package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func counter(n *atomic.Int32, v []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		n.Add(1)
		return v, nil
	}
}

func TestGetCached_FreshnessWindow(t *testing.T) {
	clock := &fakeClock{t: t0}
	c := New(NewMemoryStore(), Options{Now: clock.Now})
	var calls atomic.Int32

	// producer 运行期间时钟前进；fetchedAt 取 producer 开始前的时间。
	slow := func(context.Context) ([]string, error) {
		calls.Add(1)
		clock.Set(clock.Now().Add(10 * time.Minute))
		return []string{"a"}, nil
	}
	got, err := GetCached(context.Background(), c, "k", slow)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	clock.Set(t0.Add(29*time.Minute + 59*time.Second))
	got, err = GetCached(context.Background(), c, "k", slow)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.EqualValues(t, 1, calls.Load())

	clock.Set(t0.Add(30 * time.Minute))
	_, err = GetCached(context.Background(), c, "k", slow)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "恰好 30 分钟时应视为过期")
}

func TestGetCached_ErrorsAreNotStored(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, Options{})
	boom := errors.New("boom")

	_, err := GetCached(context.Background(), c, "k", func(context.Context) ([]string, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())

	var calls atomic.Int32
	got, err := GetCached(context.Background(), c, "k", counter(&calls, []string{"ok"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetCached_EmptyResultIsCached(t *testing.T) {
	c := New(nil, Options{})
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		got, err := GetCached(context.Background(), c, "empty", counter(&calls, []string{}))
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetCached_KeysAreIndependent(t *testing.T) {
	c := New(nil, Options{})
	var calls atomic.Int32
	_, _ = GetCached(context.Background(), c, "a", counter(&calls, []string{"1"}))
	got, err := GetCached(context.Background(), c, "b", counter(&calls, []string{"2"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetCached_CoalesceRunsProducerOnce(t *testing.T) {
	c := New(nil, Options{Coalesce: true})
	var calls atomic.Int32
	release := make(chan struct{})
	produce := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := GetCached(context.Background(), c, "k", produce)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetCached_DefaultTTL(t *testing.T) {
	assert.Equal(t, 30*time.Minute, New(nil, Options{}).TTL())
	assert.Equal(t, time.Minute, New(nil, Options{TTL: time.Minute}).TTL())
}

func TestFileStore_SurvivesNewCache(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	c1 := New(NewFileStore(dir), Options{})
	_, err := GetCached(context.Background(), c1, "search_肖申克_all_20", counter(&calls, []string{"x"}))
	require.NoError(t, err)

	store := NewFileStore(dir)
	_, err = os.Stat(store.Path("search_肖申克_all_20"))
	require.NoError(t, err)

	c2 := New(store, Options{})
	got, err := GetCached(context.Background(), c2, "search_肖申克_all_20", counter(&calls, []string{"y"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFileStore_KeyCannotEscapeDir(t *testing.T) {
	s := NewFileStore("/tmp/cache")
	assert.Contains(t, s.Path("../../etc/passwd"), "/tmp/cache/")
}

func TestRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore("://nope")
	require.Error(t, err)
}

func TestRedisStore_UnreachableDegradesToMiss(t *testing.T) {
	store, err := NewRedisStore("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer store.Close()

	c := New(store, Options{})
	var calls atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := GetCached(ctx, c, "k", counter(&calls, []string{"v"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, got)

	_, err = GetCached(ctx, c, "k", counter(&calls, []string{"v"}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "redis 不可用时每次都重新计算")
}
