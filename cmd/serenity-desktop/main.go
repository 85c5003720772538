package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	sqliteadapter "serenity-browser/internal/adapters/store/sqlite"
	"serenity-browser/internal/adapters/webview"
	"serenity-browser/internal/app"
	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/commands"
	"serenity-browser/internal/services/focus"
	"serenity-browser/internal/services/lifecycle"
	"serenity-browser/internal/services/registry"
	"serenity-browser/internal/services/webapp"

	"golang.org/x/sync/errgroup"
	"pkt.systems/pslog"
)

// 主窗口必须跑在主线程（macOS/Cocoa 要求），main goroutine 在 init 阶段锁定。
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run 负责装配：配置 → 日志 → 会话日志库 → 引擎 → 控制器 → 命令 API → 主窗口。
// 主窗口关闭或收到 Ctrl+C 时整体退出。
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serenity-desktop", flag.ContinueOnError)
	configPath := fs.String("config", "", "yaml config file (optional)")
	listen := fs.String("listen", "", "command api listen address")
	dbPath := fs.String("db", "", "sqlite session journal path (use \"-\" to disable)")
	engine := fs.String("engine", "", "engine profile: chromium|edge")
	headless := fs.Bool("headless", false, "run without native windows")
	debug := fs.Bool("debug", false, "enable webview devtools")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfig(ctx, *configPath)
	if err != nil {
		return err
	}
	// 命令行参数只覆盖显式传入的项。
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "db":
			cfg.DBPath = *dbPath
		case "engine":
			cfg.Engine = *engine
		case "headless":
			cfg.Headless = *headless
		case "debug":
			cfg.Debug = *debug
		}
	})
	if cfg.DBPath == "-" {
		cfg.DBPath = ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}

	log := app.NewLogger(os.Stderr)
	ctx = pslog.ContextWithLogger(ctx, log)

	// Ctrl+C 优雅退出：给 http.Server.Shutdown 和窗口一个收尾的机会。
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var (
		store   *sqliteadapter.Store
		journal lifecycle.Journal
		history commands.History
	)
	if cfg.DBPath != "" {
		db, err := sqliteadapter.Open(appCtx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = sqliteadapter.NewStore(db)
		journal, history = store, store
	}

	eng, native := newEngine(log, cfg)

	ctrl, err := lifecycle.New(lifecycle.Options{
		Registry:    registry.New(),
		Engine:      eng,
		Profile:     profile,
		Logger:      log,
		Journal:     journal,
		Blocker:     focus.NewBlocker(cfg.Focus.Blocklist, cfg.Focus.Enabled),
		DefaultArgs: cfg.ExtraBrowserArgs,
	})
	if err != nil {
		return err
	}
	cmds := commands.NewService(ctrl, history, log)

	srv, err := webapp.New(webapp.Options{
		ListenAddr: cfg.Listen,
		Commands:   cmds,
		Store:      store,
		DBPath:     cfg.DBPath,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	log.Info("serenity starting", "version", app.Version, "engine", profile.Name(), "native", native, "journal", cfg.DBPath != "")

	g, gctx := errgroup.WithContext(appCtx)
	ready := make(chan string, 1)
	g.Go(func() error {
		return srv.Run(gctx, ready)
	})

	if !native {
		return g.Wait()
	}

	var addr string
	select {
	case addr = <-ready:
	case <-gctx.Done():
		return g.Wait()
	}

	uiURL := cfg.MainWindow.URL
	if uiURL == "" {
		uiURL = "http://" + normalizeListenForBrowser(addr)
	}
	winErr := webview.RunMainWindow(gctx, log, webview.MainWindowOptions{
		Title:  cfg.MainWindow.Title,
		URL:    uiURL,
		Width:  cfg.MainWindow.Width,
		Height: cfg.MainWindow.Height,
		Debug:  cfg.Debug,
	}, cmds.Bindings(gctx))

	// 主窗口关闭即退出：停掉命令 API，子窗口由各自的线程在进程退出时回收。
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return winErr
}

// newEngine 按配置选择引擎；原生 webview 不可用时回落到 headless 并告警。
func newEngine(log pslog.Logger, cfg app.Config) (model.Engine, bool) {
	if cfg.Headless {
		return webview.NewHeadless(log), false
	}
	n, err := webview.NewNative(log, cfg.Debug)
	if err != nil {
		if errors.Is(err, webview.ErrNativeUnavailable) {
			log.Warn("native webview unavailable, falling back to headless engine", "err", err)
		} else {
			log.Error("native webview init failed, falling back to headless engine", "err", err)
		}
		return webview.NewHeadless(log), false
	}
	return n, true
}

func normalizeListenForBrowser(listen string) string {
	// listen 常见形态：127.0.0.1:8797 / 0.0.0.0:8797 / :8797 / [::]:8797
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
