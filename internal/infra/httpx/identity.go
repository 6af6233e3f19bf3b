package httpx

import (
	"math/rand"
	"sync"
	"time"
)

// IdentityProvider 为每次请求提供一个客户端身份（User-Agent）。
type IdentityProvider interface {
	UserAgent() string
}

// DefaultUserAgents 是内置 UA 池：桌面 + 移动端混合，降低指纹一致性。
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
}

// UAPool 从固定列表中随机挑选 UA；并发安全。
type UAPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

// NewUAPool 用给定列表构造 UA 池；列表为空时回退到 DefaultUserAgents。
func NewUAPool(uas []string) *UAPool {
	list := make([]string, 0, len(uas))
	for _, ua := range uas {
		if ua != "" {
			list = append(list, ua)
		}
	}
	if len(list) == 0 {
		list = append(list, DefaultUserAgents...)
	}
	return &UAPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: list,
	}
}

func (p *UAPool) UserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}
