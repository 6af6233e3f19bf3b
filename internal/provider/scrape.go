package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

const (
	StageFetch = "fetch"
	StageParse = "parse"
)

// Error 是 provider 阶段的可追溯错误。
// 上层据此把失败归类为 fetch / parse，写入日志与指标。
type Error struct {
	Category domain.Category
	Stage    string // StageFetch 或 StageParse
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("category=%s stage=%s: %v", e.Category, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf 返回错误所在阶段；不是 *Error 时返回空串。
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// FetchParse 抓取并解析一个类别。
// 成功时返回的切片永不为 nil（可能为空）；失败时返回 *Error。
func FetchParse(ctx context.Context, p Provider, g Getter) ([]domain.Record, error) {
	if p == nil {
		return nil, errors.New("provider 不能为空")
	}
	if g == nil {
		return nil, &Error{Category: p.Category(), Stage: StageFetch, Err: errors.New("getter 不能为空")}
	}

	body, err := p.Fetch(ctx, g)
	if err != nil {
		return nil, &Error{Category: p.Category(), Stage: StageFetch, Err: err}
	}
	recs, err := p.Parse(body)
	if err != nil {
		return nil, &Error{Category: p.Category(), Stage: StageParse, Err: err}
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}
