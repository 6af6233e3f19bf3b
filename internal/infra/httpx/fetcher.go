package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/doubanhot/internal/logging"
	"github.com/John-Robertt/doubanhot/internal/metrics"
)

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
	DefaultBaseDelay   = 1000 * time.Millisecond

	defaultMaxBody = 8 << 20
)

// Kind 决定请求期望的响应类型（影响 Accept 头）。
type Kind int

const (
	KindHTML Kind = iota
	KindJSON
)

func (k Kind) String() string {
	if k == KindJSON {
		return "json"
	}
	return "html"
}

// Options 是 Fetcher 的可调参数；零值字段使用默认值。
type Options struct {
	// MaxAttempts 是一次逻辑请求的总尝试次数（含首次）。
	MaxAttempts int
	// Timeout 是单次尝试的超时。
	Timeout time.Duration
	// BaseDelay 是重试间隔的基数：第 n 次失败后等待 BaseDelay*n（线性增长）。
	BaseDelay time.Duration

	// RPS > 0 时对上游做整体限速（令牌桶）。
	RPS   float64
	Burst int

	// Breaker 为 true 时用熔断器包裹整次逻辑请求。
	Breaker bool

	// BlockedHosts 是“安全验证页”所在的主机名；被重定向到这些主机视为失败尝试。
	BlockedHosts []string
}

// Fetcher 发出一次逻辑 GET：有界重试 + 线性退避 + 单次尝试超时 + 每次尝试轮换身份。
//
// 除随机 UA 与可选的限速/熔断状态外，跨调用无状态；可并发使用。
type Fetcher struct {
	client   *http.Client
	identity IdentityProvider

	maxAttempts  int
	timeout      time.Duration
	baseDelay    time.Duration
	blockedHosts []string

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]

	// sleep 可在测试中替换，用于断言退避间隔而不真正等待。
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFetcher(c *http.Client, identity IdentityProvider, opts Options) *Fetcher {
	if c == nil {
		c = &http.Client{}
	}
	if identity == nil {
		identity = NewUAPool(nil)
	}
	f := &Fetcher{
		client:       c,
		identity:     identity,
		maxAttempts:  opts.MaxAttempts,
		timeout:      opts.Timeout,
		baseDelay:    opts.BaseDelay,
		blockedHosts: normHosts(opts.BlockedHosts),
		sleep:        sleepCtx,
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = DefaultMaxAttempts
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.baseDelay < 0 {
		f.baseDelay = 0
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	if opts.Breaker {
		f.breaker = newBreaker("upstream")
	}
	return f
}

// Get 抓取 rawURL 并返回原始响应体。
// 全部尝试失败时返回 *ExhaustedError（errors.Is(err, ErrFetchExhausted) 为真）。
func (f *Fetcher) Get(ctx context.Context, rawURL string, kind Kind) ([]byte, error) {
	if f.breaker == nil {
		return f.fetch(ctx, rawURL, kind)
	}
	b, err := f.breaker.Execute(func() ([]byte, error) {
		return f.fetch(ctx, rawURL, kind)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.FetchAttempts.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return b, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, kind Kind) ([]byte, error) {
	started := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(kind.String()).Observe(time.Since(started).Seconds())
	}()

	var (
		lastErr error
		tried   int
	)
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		tried = attempt
		b, err := f.attempt(ctx, rawURL, kind)
		if err == nil {
			metrics.FetchAttempts.WithLabelValues("ok").Inc()
			return b, nil
		}
		lastErr = err
		metrics.FetchAttempts.WithLabelValues("failed").Inc()
		logging.Debug().
			Str("url", rawURL).
			Int("attempt", attempt).
			Err(err).
			Msg("fetch attempt failed")

		if ctx.Err() != nil {
			// 调用方已取消：不再重试。
			break
		}
		if attempt < f.maxAttempts {
			if err := f.sleep(ctx, f.baseDelay*time.Duration(attempt)); err != nil {
				break
			}
		}
	}
	return nil, &ExhaustedError{URL: rawURL, Attempts: tried, Err: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, kind Kind) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	actx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req.Header, kind)
	req.Header.Set("User-Agent", f.identity.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.Request != nil && resp.Request.URL != nil && f.isBlocked(resp.Request.URL.Hostname()) {
		return nil, &BlockedError{URL: resp.Request.URL.String(), Reason: "security-check"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBody))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("empty response body")
	}
	return b, nil
}

func (f *Fetcher) isBlocked(host string) bool {
	host = strings.ToLower(host)
	for _, h := range f.blockedHosts {
		if host == h {
			return true
		}
	}
	return false
}

func setBrowserHeaders(h http.Header, kind Kind) {
	if kind == KindJSON {
		h.Set("Accept", "application/json")
	} else {
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	}
	h.Set("Accept-Language", "zh-CN,zh;q=0.8,zh-TW;q=0.7,zh-HK;q=0.5,en-US;q=0.3,en;q=0.2")
	h.Set("Upgrade-Insecure-Requests", "1")
}

func normHosts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, h := range in {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
