package webview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"serenity-browser/internal/domain/model"

	"pkt.systems/pslog"
)

var (
	errNoBackEntry    = errors.New("no history entry to go back to")
	errNoForwardEntry = errors.New("no history entry to go forward to")
	errViewClosed     = errors.New("webview window is closed")
)

// Headless 是不创建真实窗口的引擎实现：
// 维护每个 webview 的导航历史，语义与浏览器的 back/forward 栈一致。
// 用于无图形环境（服务器、CI）以及测试。
type Headless struct {
	log pslog.Logger

	mu    sync.Mutex
	views map[string]*headlessView
}

func NewHeadless(log pslog.Logger) *Headless {
	return &Headless{log: log, views: make(map[string]*headlessView)}
}

// Open 实现 model.Engine。
func (e *Headless) Open(ctx context.Context, spec model.WindowSpec, onClose func()) (model.WebviewHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.ID == "" {
		return nil, errors.New("window id is required")
	}
	spec.BrowserArgs = EngineArgs(spec)
	v := &headlessView{
		spec:    spec,
		history: []string{spec.URL},
		onClose: onClose,
	}

	e.mu.Lock()
	if _, exists := e.views[spec.ID]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("window %s already open", spec.ID)
	}
	e.views[spec.ID] = v
	e.mu.Unlock()

	v.release = func() {
		e.mu.Lock()
		delete(e.views, spec.ID)
		e.mu.Unlock()
	}

	if e.log != nil {
		e.log.Debug("headless window opened", "webview", spec.ID, "args", len(spec.BrowserArgs))
	}
	return v, nil
}

// Spec 返回窗口创建时的参数（BrowserArgs 已包含安全降级参数）。
func (e *Headless) Spec(id string) (model.WindowSpec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.views[id]
	if !ok {
		return model.WindowSpec{}, false
	}
	return v.spec, true
}

// Windows 返回当前打开的窗口 ID。
func (e *Headless) Windows() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.views))
	for id := range e.views {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CloseFromOS 模拟用户直接关闭窗口（不经过命令层）。
func (e *Headless) CloseFromOS(id string) bool {
	e.mu.Lock()
	v, ok := e.views[id]
	e.mu.Unlock()
	if !ok {
		return false
	}
	return v.Close() == nil
}

type headlessView struct {
	mu      sync.Mutex
	spec    model.WindowSpec
	history []string
	pos     int
	reloads int
	closed  bool

	onClose func()
	release func()
}

func (v *headlessView) Navigate(url string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errViewClosed
	}
	// 新导航会丢弃 forward 栈。
	v.history = append(v.history[:v.pos+1], url)
	v.pos = len(v.history) - 1
	return nil
}

func (v *headlessView) GoBack() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errViewClosed
	}
	if v.pos == 0 {
		return errNoBackEntry
	}
	v.pos--
	return nil
}

func (v *headlessView) GoForward() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errViewClosed
	}
	if v.pos >= len(v.history)-1 {
		return errNoForwardEntry
	}
	v.pos++
	return nil
}

func (v *headlessView) Reload() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errViewClosed
	}
	v.reloads++
	return nil
}

func (v *headlessView) CurrentURL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.history[v.pos]
}

func (v *headlessView) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return errViewClosed
	}
	v.closed = true
	onClose, release := v.onClose, v.release
	v.mu.Unlock()

	if release != nil {
		release()
	}
	if onClose != nil {
		onClose()
	}
	return nil
}
