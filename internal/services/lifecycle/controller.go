package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/platform/id"
	"serenity-browser/internal/platform/weburl"
	"serenity-browser/internal/services/engineargs"
	"serenity-browser/internal/services/focus"
	"serenity-browser/internal/services/privacy"
	"serenity-browser/internal/services/registry"

	"pkt.systems/pslog"
)

// Journal 是会话日志的写入端；nil 表示不留痕。
type Journal interface {
	AppendEvent(ctx context.Context, ev model.Event) (model.Event, error)
}

// Options 是控制器的依赖集合。Registry/Engine/Profile/Logger 必填。
type Options struct {
	Registry *registry.Registry
	Engine   model.Engine
	Profile  engineargs.Profile
	Logger   pslog.Logger

	Journal Journal
	Blocker *focus.Blocker
	IDs     *id.Sequencer

	// DefaultArgs 来自配置，排在引擎基础参数之后、请求参数之前。
	DefaultArgs []string
}

// CreateRequest 是创建 webview 的入参。
type CreateRequest struct {
	URL         string
	Title       string
	Width       int
	Height      int
	Resizable   bool
	Center      bool
	Decorations bool
	AlwaysOnTop bool
	SkipTaskbar bool
	WebSecurity bool
	Fullscreen  bool
	ExtraArgs   []string
}

// CreateResult 返回新 ID 以及需要提示给用户的警告（例如关闭了同源策略）。
type CreateResult struct {
	ID       string
	Warnings []string
}

// Controller 负责 webview 的 创建 → 活跃 → 关闭 生命周期。
type Controller struct {
	reg     *registry.Registry
	engine  model.Engine
	profile engineargs.Profile
	log     pslog.Logger
	journal Journal
	blocker *focus.Blocker
	ids     *id.Sequencer
	extra   []string

	// opening 记录正在创建中的窗口；值为 true 表示窗口在登记前就已关闭。
	mu      sync.Mutex
	opening map[string]bool
}

func New(opts Options) (*Controller, error) {
	if opts.Registry == nil {
		return nil, errors.New("lifecycle: registry is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("lifecycle: engine is required")
	}
	if opts.Profile == nil {
		return nil, errors.New("lifecycle: engine profile is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("lifecycle: logger is required")
	}
	if opts.IDs == nil {
		opts.IDs = id.NewSequencer()
	}
	return &Controller{
		reg:     opts.Registry,
		engine:  opts.Engine,
		profile: opts.Profile,
		log:     opts.Logger,
		journal: opts.Journal,
		blocker: opts.Blocker,
		ids:     opts.IDs,
		extra:   append([]string(nil), opts.DefaultArgs...),
		opening: make(map[string]bool),
	}, nil
}

// Profile 返回启动时选定的引擎配置。
func (c *Controller) Profile() engineargs.Profile {
	return c.profile
}

// Blocker 返回专注模式拦截器；未配置时为 nil。
func (c *Controller) Blocker() *focus.Blocker {
	return c.blocker
}

// Create 校验 URL、组装引擎参数、创建窗口并登记。
// URL 非法或被屏蔽时不会触达引擎。
func (c *Controller) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	u, err := weburl.Parse(req.URL)
	if err != nil {
		return CreateResult{}, err
	}
	if err := c.checkBlocked(u); err != nil {
		return CreateResult{}, err
	}

	webviewID := c.ids.Next("webview")
	log := c.log.With("webview", webviewID)

	spec := model.WindowSpec{
		ID:           webviewID,
		URL:          u.String(),
		Title:        req.Title,
		Width:        req.Width,
		Height:       req.Height,
		Resizable:    req.Resizable,
		Center:       req.Center && !req.Fullscreen,
		Decorations:  req.Decorations,
		AlwaysOnTop:  req.AlwaysOnTop,
		SkipTaskbar:  req.SkipTaskbar,
		WebSecurity:  req.WebSecurity,
		Fullscreen:   req.Fullscreen,
		BrowserArgs:  engineargs.BuildArgs(c.profile, c.callerArgs(req.ExtraArgs)),
		EngineFamily: c.profile.Name(),
	}

	var warnings []string
	if !req.WebSecurity {
		msg := "web security disabled: same-origin policy is not enforced in this webview"
		warnings = append(warnings, msg)
		log.Warn("web security disabled by caller", "web_security", false, "url", privacy.RedactURL(spec.URL))
	}

	c.mu.Lock()
	c.opening[webviewID] = false
	c.mu.Unlock()

	h, err := c.engine.Open(ctx, spec, func() { c.handleClosed(webviewID) })

	c.mu.Lock()
	closedEarly := c.opening[webviewID]
	delete(c.opening, webviewID)
	if err == nil && !closedEarly {
		c.reg.Register(model.WebviewRecord{ID: webviewID, URL: spec.URL, Title: req.Title}, h)
	}
	c.mu.Unlock()

	if err != nil {
		log.Error("create webview failed", "err", err)
		return CreateResult{}, fmt.Errorf("%w: %v", model.ErrWebviewCreationFailed, err)
	}
	log.Info("webview created", "url", privacy.RedactURL(spec.URL), "engine", c.profile.Name(), "args", len(spec.BrowserArgs))

	c.record(ctx, model.Event{WebviewID: webviewID, Kind: model.EventCreated, URL: spec.URL, Detail: strings.Join(spec.BrowserArgs, " ")})
	if !req.WebSecurity {
		c.record(ctx, model.Event{WebviewID: webviewID, Kind: model.EventSecurityDowngrade, URL: spec.URL, Detail: "web_security=false"})
	}

	return CreateResult{ID: webviewID, Warnings: warnings}, nil
}

// Navigate 让已有 webview 加载新 URL，并更新登记的当前 URL。
// 只保证“已发起加载”，不等待页面加载完成。
func (c *Controller) Navigate(ctx context.Context, webviewID, rawURL string) error {
	if _, ok := c.reg.Lookup(webviewID); !ok {
		return notFound(webviewID)
	}
	u, err := weburl.Parse(rawURL)
	if err != nil {
		return err
	}
	if err := c.checkBlocked(u); err != nil {
		return err
	}
	target := u.String()

	err = c.reg.Exec(webviewID, func(h model.WebviewHandle) error {
		if err := h.Navigate(target); err != nil {
			return engineFailed("navigate", err)
		}
		c.reg.SetURL(webviewID, target)
		return nil
	})
	if err != nil {
		return c.wrapExecErr(webviewID, err)
	}

	c.log.With("webview", webviewID).Info("webview navigated", "url", privacy.RedactURL(target))
	c.record(ctx, model.Event{WebviewID: webviewID, Kind: model.EventNavigated, URL: target})
	return nil
}

func (c *Controller) GoBack(ctx context.Context, webviewID string) error {
	return c.traverse(ctx, webviewID, model.EventBack, model.WebviewHandle.GoBack)
}

func (c *Controller) GoForward(ctx context.Context, webviewID string) error {
	return c.traverse(ctx, webviewID, model.EventForward, model.WebviewHandle.GoForward)
}

func (c *Controller) Reload(ctx context.Context, webviewID string) error {
	return c.traverse(ctx, webviewID, model.EventReload, model.WebviewHandle.Reload)
}

// traverse 是 back/forward/reload 的共用路径：直接透传给引擎，不自行维护历史。
func (c *Controller) traverse(ctx context.Context, webviewID string, kind model.EventKind, op func(model.WebviewHandle) error) error {
	current := ""
	err := c.reg.Exec(webviewID, func(h model.WebviewHandle) error {
		if err := op(h); err != nil {
			return engineFailed(string(kind), err)
		}
		if rep, ok := h.(model.URLReporter); ok {
			current = rep.CurrentURL()
			if current != "" {
				c.reg.SetURL(webviewID, current)
			}
		}
		return nil
	})
	if err != nil {
		return c.wrapExecErr(webviewID, err)
	}

	c.log.With("webview", webviewID).Debug("webview history op", "op", string(kind), "url", privacy.RedactURL(current))
	c.record(ctx, model.Event{WebviewID: webviewID, Kind: kind, URL: current})
	return nil
}

// Close 请求关闭窗口；登记项由引擎的关闭回调移除。
func (c *Controller) Close(ctx context.Context, webviewID string) error {
	err := c.reg.Exec(webviewID, func(h model.WebviewHandle) error {
		if err := h.Close(); err != nil {
			return engineFailed("close", err)
		}
		return nil
	})
	if err != nil {
		return c.wrapExecErr(webviewID, err)
	}
	return nil
}

// Get 返回登记记录。
func (c *Controller) Get(webviewID string) (model.WebviewRecord, error) {
	rec, ok := c.reg.Lookup(webviewID)
	if !ok {
		return model.WebviewRecord{}, notFound(webviewID)
	}
	return rec, nil
}

// List 返回全部存活的 webview。
func (c *Controller) List() []model.WebviewRecord {
	return c.reg.List()
}

func (c *Controller) handleClosed(webviewID string) {
	c.mu.Lock()
	if _, pending := c.opening[webviewID]; pending {
		c.opening[webviewID] = true
	}
	removed := c.reg.Remove(webviewID)
	c.mu.Unlock()

	c.log.With("webview", webviewID).Info("webview closed", "was_registered", removed)
	// 关闭可能发生在任何时刻（包括进程退出阶段），日志写入不绑定请求 ctx。
	c.record(context.Background(), model.Event{WebviewID: webviewID, Kind: model.EventClosed})
}

// checkBlocked 在专注模式下拦截黑名单站点，日志只记录主机名。
func (c *Controller) checkBlocked(u *url.URL) error {
	if err := c.blocker.Check(u); err != nil {
		c.log.Info("url blocked", "host", privacy.HostOf(u.String()))
		return err
	}
	return nil
}

// callerArgs 把配置里的默认参数放在请求参数前面，结果不与任何一方共享底层数组。
func (c *Controller) callerArgs(req []string) []string {
	if len(c.extra) == 0 {
		return req
	}
	out := make([]string, 0, len(c.extra)+len(req))
	out = append(out, c.extra...)
	return append(out, req...)
}

func (c *Controller) record(ctx context.Context, ev model.Event) {
	if c.journal == nil {
		return
	}
	if _, err := c.journal.AppendEvent(ctx, ev); err != nil {
		c.log.With("webview", ev.WebviewID).Warn("journal append failed", "kind", string(ev.Kind), "err", err)
	}
}

func (c *Controller) wrapExecErr(webviewID string, err error) error {
	if errors.Is(err, model.ErrWebviewNotFound) {
		return notFound(webviewID)
	}
	c.log.With("webview", webviewID).Warn("engine operation failed", "err", err)
	return err
}

func notFound(webviewID string) error {
	return fmt.Errorf("%w: %s", model.ErrWebviewNotFound, webviewID)
}

func engineFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrEngineOperationFailed, op, err)
}
