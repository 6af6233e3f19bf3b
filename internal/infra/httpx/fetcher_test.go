package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingUA struct{ n atomic.Int32 }

func (c *countingUA) UserAgent() string {
	return "ua-" + string(rune('0'+c.n.Add(1)))
}

// recordSleeps 替换 Fetcher 的退避等待，只记录间隔。
func recordSleeps(f *Fetcher) *[]time.Duration {
	var mu sync.Mutex
	var got []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, d)
		return ctx.Err()
	}
	return &got
}

func TestFetcher_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	var uas []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uas = append(uas, r.Header.Get("User-Agent"))
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), &countingUA{}, Options{})
	sleeps := recordSleeps(f)

	b, err := f.Get(context.Background(), srv.URL, KindHTML)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(b))
	assert.EqualValues(t, 3, calls.Load())

	// 线性退避：1s*1, 1s*2；最后一次成功后不再等待。
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
	// 每次尝试使用新的身份。
	assert.Equal(t, []string{"ua-1", "ua-2", "ua-3"}, uas)
}

func TestFetcher_ExhaustedCarriesLastError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, Options{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond})
	sleeps := recordSleeps(f)

	_, err := f.Get(context.Background(), srv.URL, KindHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchExhausted))

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 3, ex.Attempts)

	var se *HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)

	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *sleeps)
}

func TestFetcher_JSONAcceptHeader(t *testing.T) {
	var accept, lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		lang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(`{"subjects":[]}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, Options{})
	_, err := f.Get(context.Background(), srv.URL, KindJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", accept)
	assert.Contains(t, lang, "zh-CN")
}

func TestFetcher_PerAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewFetcher(srv.Client(), nil, Options{MaxAttempts: 2, Timeout: 50 * time.Millisecond})
	recordSleeps(f)

	started := time.Now()
	_, err := f.Get(context.Background(), srv.URL, KindHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchExhausted))
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "最后的错误应是单次尝试超时：%v", err)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestFetcher_StopsWhenCallerCancels(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := NewFetcher(srv.Client(), nil, Options{MaxAttempts: 5})
	f.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := f.Get(ctx, srv.URL, KindHTML)
	require.Error(t, err)
	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, 1, ex.Attempts)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetcher_BlockedHostIsFailure(t *testing.T) {
	sec := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("verify"))
	}))
	defer sec.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, sec.URL+"/c", http.StatusFound)
	}))
	defer srv.Close()

	// 两个 httptest server 主机名都是 127.0.0.1；这里用端口无关的主机名匹配验证拦截逻辑。
	f := NewFetcher(srv.Client(), nil, Options{MaxAttempts: 1, BlockedHosts: []string{" 127.0.0.1 "}})
	_, err := f.Get(context.Background(), srv.URL, KindHTML)
	require.Error(t, err)
	var be *BlockedError
	require.True(t, errors.As(err, &be))
}

func TestFetcher_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, Options{MaxAttempts: 1, Breaker: true})
	for i := 0; i < 10; i++ {
		_, err := f.Get(context.Background(), srv.URL, KindHTML)
		require.ErrorIs(t, err, ErrFetchExhausted)
	}

	_, err := f.Get(context.Background(), srv.URL, KindHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "熔断后应快速失败：%v", err)
	assert.EqualValues(t, 10, calls.Load())
}

func TestFetcher_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil, Options{RPS: 20, Burst: 1})
	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Get(context.Background(), srv.URL, KindHTML)
		require.NoError(t, err)
	}
	// burst=1：第 2、3 次各等待约 50ms。
	assert.GreaterOrEqual(t, time.Since(started), 80*time.Millisecond)
}
