package spider

import (
	"time"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

// Observer 用于把抓取进度从聚合流程中解耦出来。
//
// 约束：
// - spider 包只发事件，不做任何输出（避免污染 stdout 的 JSON 导出）。
// - 实现必须并发安全：OnCategoryDone 可能来自多个 goroutine。
type Observer interface {
	// OnCategoryDone 在单个类别完成时调用；err 非 nil 表示该类别已降级为空列表。
	OnCategoryDone(c domain.Category, count int, dur time.Duration, err error)
	// OnAggregateDone 在 All 返回前调用一次。
	OnAggregateDone(ds domain.Dataset, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnCategoryDone(domain.Category, int, time.Duration, error) {}
func (nopObserver) OnAggregateDone(domain.Dataset, time.Duration)             {}
