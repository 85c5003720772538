//go:build cgo

package webview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"serenity-browser/internal/domain/model"

	webview "github.com/webview/webview_go"
	"pkt.systems/pslog"
)

// webview2ArgsEnv 是 WebView2 运行时读取额外浏览器参数的环境变量。
const webview2ArgsEnv = "WEBVIEW2_ADDITIONAL_BROWSER_ARGUMENTS"

// Native 基于 webview_go 创建系统原生窗口。
// 每个窗口跑在独立的、锁定 OS 线程的 goroutine 上，所有调用经 Dispatch 投递到该线程。
type Native struct {
	log   pslog.Logger
	debug bool

	// openMu 串行化窗口创建：引擎参数通过进程级环境变量传递。
	openMu sync.Mutex
}

func NewNative(log pslog.Logger, debug bool) (*Native, error) {
	return &Native{log: log, debug: debug}, nil
}

type openResult struct {
	h   *nativeHandle
	err error
}

// Open 实现 model.Engine。
func (n *Native) Open(ctx context.Context, spec model.WindowSpec, onClose func()) (model.WebviewHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.openMu.Lock()
	defer n.openMu.Unlock()

	args := EngineArgs(spec)
	log := n.log.With("webview", spec.ID)
	if runtime.GOOS == "windows" && spec.EngineFamily == "edge" {
		if err := os.Setenv(webview2ArgsEnv, strings.Join(args, " ")); err != nil {
			return nil, fmt.Errorf("set %s: %w", webview2ArgsEnv, err)
		}
	} else {
		log.Debug("engine args not applicable to this runtime", "goos", runtime.GOOS, "engine", spec.EngineFamily, "args", len(args))
	}
	// webview_go 不提供以下窗口属性，只留痕。
	log.Debug("window hints", "center", spec.Center, "decorations", spec.Decorations,
		"always_on_top", spec.AlwaysOnTop, "skip_taskbar", spec.SkipTaskbar, "fullscreen", spec.Fullscreen)

	ready := make(chan openResult, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		w := webview.New(n.debug)
		if w == nil {
			ready <- openResult{err: errors.New("webview runtime returned no window")}
			return
		}
		w.SetTitle(spec.Title)
		hint := webview.HintNone
		if !spec.Resizable {
			hint = webview.HintFixed
		}
		w.SetSize(spec.Width, spec.Height, hint)
		w.Navigate(spec.URL)

		h := &nativeHandle{w: w}
		ready <- openResult{h: h}

		w.Run()
		h.markClosed()
		w.Destroy()
		log.Info("webview window closed")
		if onClose != nil {
			onClose()
		}
	}()

	select {
	case r := <-ready:
		if r.err != nil {
			return nil, r.err
		}
		return r.h, nil
	case <-ctx.Done():
		// 窗口可能随后才建好：收尾时直接关掉，避免留下未登记的窗口。
		go func() {
			if r := <-ready; r.h != nil {
				_ = r.h.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

type nativeHandle struct {
	w webview.WebView

	mu     sync.Mutex
	closed bool
}

func (h *nativeHandle) markClosed() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *nativeHandle) dispatch(fn func(w webview.WebView)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errViewClosed
	}
	w := h.w
	w.Dispatch(func() { fn(w) })
	return nil
}

func (h *nativeHandle) Navigate(url string) error {
	return h.dispatch(func(w webview.WebView) { w.Navigate(url) })
}

// GoBack/GoForward/Reload 走页面内的 history API；引擎不回报“无历史可退”，只能尽力而为。
func (h *nativeHandle) GoBack() error {
	return h.dispatch(func(w webview.WebView) { w.Eval("history.back()") })
}

func (h *nativeHandle) GoForward() error {
	return h.dispatch(func(w webview.WebView) { w.Eval("history.forward()") })
}

func (h *nativeHandle) Reload() error {
	return h.dispatch(func(w webview.WebView) { w.Eval("location.reload()") })
}

func (h *nativeHandle) Close() error {
	return h.dispatch(func(w webview.WebView) { w.Terminate() })
}

// RunMainWindow 在当前 goroutine 上运行主窗口，直到窗口关闭或 ctx 取消。
// 调用方必须位于已锁定的主线程（macOS 要求 UI 在主线程）。
func RunMainWindow(ctx context.Context, log pslog.Logger, opts MainWindowOptions, bindings []Binding) error {
	if opts.URL == "" {
		return fmt.Errorf("webview url is empty")
	}
	w := webview.New(opts.Debug)
	if w == nil {
		return errors.New("webview runtime returned no window")
	}
	defer w.Destroy()

	w.SetTitle(opts.Title)
	w.SetSize(opts.Width, opts.Height, webview.HintNone)
	for _, b := range bindings {
		if err := w.Bind(b.Name, b.Fn); err != nil {
			return fmt.Errorf("bind %s: %w", b.Name, err)
		}
	}
	w.Navigate(opts.URL)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			w.Dispatch(w.Terminate)
		case <-stop:
		}
	}()

	w.Run()
	// webview_go 没有“关闭前”回调；Run 返回即视为主窗口关闭请求，只记录不拦截。
	log.Info("main window close requested")
	return nil
}
