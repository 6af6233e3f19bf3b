package provider

import (
	"fmt"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

// Registry 是 provider 的只读注册表（按类别索引）。
type Registry struct {
	byCategory map[domain.Category]Provider
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byCategory := make(map[domain.Category]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider 不能为空")
		}
		c := p.Category()
		if !c.Valid() {
			return Registry{}, fmt.Errorf("未知类别：%q", c)
		}
		if _, ok := byCategory[c]; ok {
			return Registry{}, fmt.Errorf("重复的类别：%q", c)
		}
		byCategory[c] = p
	}
	return Registry{byCategory: byCategory}, nil
}

func (r Registry) Get(c domain.Category) (Provider, bool) {
	if r.byCategory == nil {
		return nil, false
	}
	p, ok := r.byCategory[c]
	return p, ok
}

// Len 返回已注册的类别数。
func (r Registry) Len() int { return len(r.byCategory) }
