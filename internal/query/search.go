// Package query 在已聚合的 Dataset 上做搜索与统计，不触发任何网络请求。
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Scope 是搜索范围：all 或某个顶层分组。
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeMovies  Scope = Scope(domain.GroupMovies)
	ScopeTV      Scope = Scope(domain.GroupTV)
	ScopeVariety Scope = Scope(domain.GroupVariety)
	ScopeAnime   Scope = Scope(domain.GroupAnime)
)

var ErrEmptyQuery = errors.New("查询词不能为空")

// ParseScope 解析范围；空串视为 all。
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeMovies, ScopeTV, ScopeVariety, ScopeAnime:
		return sc, nil
	default:
		return "", fmt.Errorf("未知搜索范围：%q", s)
	}
}

func (s Scope) includes(group string) bool {
	return s == ScopeAll || string(s) == group
}

// Hit 是一条搜索结果：原始条目 + 来源路径（例如 movies.top250）。
type Hit struct {
	domain.Record
	Category string `json:"category"`
}

// Search 在 scope 内按标题做不区分大小写的子串匹配，
// 按固定的分组/子榜单顺序遍历，最多返回 limit 条（limit <= 0 使用默认值）。
func Search(ds domain.Dataset, q string, scope Scope, limit int) ([]Hit, error) {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return nil, ErrEmptyQuery
	}
	if scope == "" {
		scope = ScopeAll
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	out := make([]Hit, 0, limit)
	for _, sec := range ds.Sections() {
		if !scope.includes(sec.Group) {
			continue
		}
		for _, r := range sec.Records {
			if !strings.Contains(strings.ToLower(r.Title), needle) {
				continue
			}
			out = append(out, Hit{Record: r, Category: sec.Path()})
			if len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}
