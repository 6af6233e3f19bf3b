package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Transport 把“UA 注入 + keep-alive 策略”固化为统一策略；重试由 Fetcher 负责。
type Transport struct {
	Base *http.Transport

	Identity IdentityProvider

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// Clone 避免在 RoundTripper 内部修改调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.Identity != nil {
		r.Header.Set("User-Agent", t.Identity.UserAgent())
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// NewClient 构造抓取上游页面的 HTTP client。
//
// 规则：
// - proxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 不设置 Client.Timeout：超时按“每次尝试”由 Fetcher 通过 ctx 控制
func NewClient(proxyURL string, identity IdentityProvider) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
	}
	disableKeepAlives := false

	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{
			Base:              base,
			Identity:          identity,
			DisableKeepAlives: disableKeepAlives,
		},
	}, nil
}
