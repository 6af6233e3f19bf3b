package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/John-Robertt/doubanhot/internal/logging"
)

// ShutdownTimeout 是收到停止信号后等待在途请求结束的上限。
const ShutdownTimeout = 15 * time.Second

// Serve 在 ln 上提供 h，直到 ctx 取消后优雅关闭。正常关闭返回 nil。
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		// 冷缓存时 /api/all 需要完整抓取一轮，写超时要留足。
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", ln.Addr().String()).Msg("HTTP 服务已启动")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("正在关闭 HTTP 服务")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe 监听 addr 并调用 Serve。
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h)
}
