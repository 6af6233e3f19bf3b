package httpx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFetchExhausted 用于 errors.Is 判断“所有重试均失败”。
var ErrFetchExhausted = errors.New("fetch exhausted")

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// BlockedError 表示请求被引导到了站点的“安全验证”页面。
// 不尝试绕过：按一次失败尝试处理。
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	if strings.TrimSpace(e.Reason) == "" {
		return "blocked"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}

// ExhaustedError 表示一次逻辑请求的全部尝试都失败了，Err 是最后一次的底层错误。
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: %d 次尝试均失败: %v", e.URL, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }
