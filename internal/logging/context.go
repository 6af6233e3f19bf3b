package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// WithRequestID 把 request_id 绑定到 ctx 中的 logger 上。
func WithRequestID(ctx context.Context, id string) context.Context {
	l := Logger().With().Str("request_id", id).Logger()
	return l.WithContext(ctx)
}

// Ctx 返回 ctx 上绑定的 logger；没有则返回全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	l := Logger()
	return &l
}
