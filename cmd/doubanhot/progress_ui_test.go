package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/doubanhot/internal/domain"
	"github.com/John-Robertt/doubanhot/internal/provider"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnCategoryDone(domain.CategoryTop250, 25, 1500*time.Millisecond, nil)
	p.OnCategoryDone(domain.CategoryTVHot, 0, time.Second, &provider.Error{
		Category: domain.CategoryTVHot,
		Stage:    provider.StageFetch,
		Err:      errors.New("HTTP 403"),
	})
	ds := domain.Dataset{Movies: domain.MovieLists{Top250: make([]domain.Record, 25)}}
	ds.Normalize()
	p.OnAggregateDone(ds, 65*time.Second)

	out := buf.String()
	for _, want := range []string{
		"[1/9] top_250 OK count=25 (1.5s)",
		"[2/9] tv_hot FAIL fetch:",
		"完成：categories=2 failed=1 records=25 elapsed=00:01:05",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("期望 abc...，实际 %q", got)
	}
	if got := truncate(" ab ", 6); got != "ab" {
		t.Fatalf("期望 ab，实际 %q", got)
	}
}
