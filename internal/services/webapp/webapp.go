package webapp

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	sqliteadapter "serenity-browser/internal/adapters/store/sqlite"
	"serenity-browser/internal/services/commands"

	"pkt.systems/pslog"
)

// go:embed 的路径必须相对当前包目录；ui_dist/ 是主窗口加载的内置页面。
//
//go:embed ui_dist
var uiFS embed.FS

// Options 定义本地命令 API 的依赖。
// Store 可为空（未启用会话日志时）。
type Options struct {
	ListenAddr string
	Commands   *commands.Service
	Store      *sqliteadapter.Store
	DBPath     string
	Logger     pslog.Logger
}

// New 构建 Server；路由见 registerRoutes。
func New(opts Options) (*Server, error) {
	if opts.Commands == nil {
		return nil, errors.New("webapp: commands service is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("webapp: logger is required")
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = "127.0.0.1:8797"
	}
	sub, err := fs.Sub(uiFS, "ui_dist")
	if err != nil {
		return nil, fmt.Errorf("sub ui fs: %w", err)
	}
	return &Server{
		opts:  opts,
		cmds:  opts.Commands,
		store: opts.Store,
		log:   opts.Logger,
		ui:    sub,
	}, nil
}

// Run 监听 ListenAddr 直到 ctx 取消。ready 非空时在端口就绪后写入实际监听地址。
func (s *Server) Run(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.ListenAddr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	addr := ln.Addr().String()
	s.log.Info("command api listening", "addr", "http://"+addr)
	if ready != nil {
		ready <- addr
	}
	err = httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
