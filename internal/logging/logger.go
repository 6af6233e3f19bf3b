// Package logging 提供基于 zerolog 的全局日志。
//
// 用法：
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("category", "top_250").Msg("done")
//	logging.Error().Err(err).Msg("failed")
//
// 日志链必须以 Msg()/Send() 结束，否则不会输出。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	// Level：trace, debug, info, warn, error, disabled（默认 info）
	Level string
	// Format：json 或 console（默认 json）
	Format string
	// Output 默认 os.Stderr（stdout 留给 CLI 的数据输出）
	Output io.Writer
}

var (
	mu  sync.RWMutex
	log zerolog.Logger
)

func init() {
	initLogger(Config{})
}

// Init 重新配置全局 logger；可重复调用。
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	log = zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel 把字符串转换为 zerolog.Level；未知值回退 info。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回当前全局 logger 的副本。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// With 基于全局 logger 派生带字段的子 logger。
func With() zerolog.Context {
	l := Logger()
	return l.With()
}

func Debug() *zerolog.Event { l := Logger(); return l.Debug() }
func Info() *zerolog.Event  { l := Logger(); return l.Info() }
func Warn() *zerolog.Event  { l := Logger(); return l.Warn() }
func Error() *zerolog.Event { l := Logger(); return l.Error() }
