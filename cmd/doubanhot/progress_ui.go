package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/doubanhot/internal/app/spider"
	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/provider"
)

var _ spider.Observer = (*progressUI)(nil)

// progressUI 是交互终端的逐类别进度输出。
//
// - 所有过程信息写到 stderr，不污染 stdout
// - 事件驱动：spider 只发事件，CLI 决定如何展示
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	done      int
	fail      int
	total     int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:         w,
		startedAt: time.Now(),
		total:     len(domain.Categories()),
	}
}

func (p *progressUI) OnCategoryDone(c domain.Category, count int, dur time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if err != nil {
		p.fail++
		stage := provider.StageOf(err)
		if stage == "" {
			stage = "error"
		}
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			p.done, p.total, c, stage, truncate(err.Error(), 160), formatShortDuration(dur),
		)
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s OK count=%d (%s)\n",
		p.done, p.total, c, count, formatShortDuration(dur),
	)
}

func (p *progressUI) OnAggregateDone(ds domain.Dataset, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "完成：categories=%d failed=%d records=%d elapsed=%s\n",
		p.done, p.fail, totalRecords(ds), formatElapsed(dur),
	)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
