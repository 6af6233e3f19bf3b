package spider

import (
	"sort"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

// Criteria 是“高分冷门”的筛选条件。
type Criteria struct {
	MinScore float64 `json:"min_score"`
	MaxVotes int     `json:"max_votes"`
	Limit    int     `json:"limit"`
}

func DefaultCriteria() Criteria {
	return Criteria{MinScore: 8.0, MaxVotes: 100000, Limit: 20}
}

// withDefaults 把非正值替换为默认值。
func (c Criteria) withDefaults() Criteria {
	d := DefaultCriteria()
	if c.MinScore <= 0 {
		c.MinScore = d.MinScore
	}
	if c.MaxVotes <= 0 {
		c.MaxVotes = d.MaxVotes
	}
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	return c
}

// FilterUnderrated 选出 score >= MinScore 且 votes < MaxVotes 的条目，
// 按评分降序（同分保持输入顺序）并截断到 Limit。缺失评分的条目不参与。
//
// 不修改 in；返回值总是非 nil。
func FilterUnderrated(in []domain.Record, c Criteria) []domain.Record {
	c = c.withDefaults()
	out := make([]domain.Record, 0, len(in))
	for _, r := range in {
		if r.Score == nil {
			continue
		}
		if *r.Score >= c.MinScore && r.VoteCount() < c.MaxVotes {
			r.Type = domain.CategoryUnderrated
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Score > *out[j].Score })
	if len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out
}
