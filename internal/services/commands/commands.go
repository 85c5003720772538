package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/engineargs"
	"serenity-browser/internal/services/focus"
	"serenity-browser/internal/services/lifecycle"
	"serenity-browser/internal/services/privacy"

	"pkt.systems/pslog"
)

// History 是会话日志的读取端。
type History interface {
	ListEvents(ctx context.Context, webviewID string, limit int) ([]model.Event, error)
}

// CreateWebviewArgs 与前端 invoke('create_webview', {...}) 的参数名保持一致。
type CreateWebviewArgs struct {
	URL                   string   `json:"url"`
	Title                 string   `json:"title"`
	Width                 int      `json:"width"`
	Height                int      `json:"height"`
	Resizable             bool     `json:"resizable"`
	Center                bool     `json:"center"`
	Decorations           bool     `json:"decorations"`
	AlwaysOnTop           bool     `json:"alwaysOnTop"`
	SkipTaskbar           bool     `json:"skipTaskbar"`
	WebSecurity           bool     `json:"webSecurity"`
	Fullscreen            *bool    `json:"fullscreen,omitempty"`
	AdditionalBrowserArgs []string `json:"additionalBrowserArgs"`
}

// CreateResult 是 create_webview 的返回值。
type CreateResult struct {
	WebviewID string   `json:"webview_id"`
	Warnings  []string `json:"warnings,omitempty"`
}

// FocusState 是专注模式的当前状态。
type FocusState struct {
	Active bool         `json:"active"`
	Sites  []focus.Site `json:"sites"`
}

// FocusUpdate 是专注模式的局部更新；nil 字段保持不变。
type FocusUpdate struct {
	Active *bool         `json:"active,omitempty"`
	Sites  *[]focus.Site `json:"sites,omitempty"`
}

var errFocusDisabled = errors.New("focus blocker is disabled")

// Service 是命令入口：把调用方请求转成控制器调用，本身不含业务逻辑。
type Service struct {
	ctrl    *lifecycle.Controller
	history History
	log     pslog.Logger
}

func NewService(ctrl *lifecycle.Controller, history History, log pslog.Logger) *Service {
	return &Service{ctrl: ctrl, history: history, log: log}
}

func (s *Service) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Go!", name)
}

func (s *Service) SystemInfo() string {
	return fmt.Sprintf("System: %s - Architecture: %s - %s: Active", runtime.GOOS, runtime.GOARCH, s.ctrl.Profile().Label())
}

// OpenBrowser 目前只记录 URL 并返回成功，不调用系统浏览器，也不校验输入。
func (s *Service) OpenBrowser(_ context.Context, url string) error {
	s.log.Info("open browser requested", "url", privacy.RedactURL(url))
	return nil
}

func (s *Service) CreateWebview(ctx context.Context, args CreateWebviewArgs) (CreateResult, error) {
	fullscreen := args.Fullscreen != nil && *args.Fullscreen
	res, err := s.ctrl.Create(ctx, lifecycle.CreateRequest{
		URL:         args.URL,
		Title:       args.Title,
		Width:       args.Width,
		Height:      args.Height,
		Resizable:   args.Resizable,
		Center:      args.Center,
		Decorations: args.Decorations,
		AlwaysOnTop: args.AlwaysOnTop,
		SkipTaskbar: args.SkipTaskbar,
		WebSecurity: args.WebSecurity,
		Fullscreen:  fullscreen,
		ExtraArgs:   args.AdditionalBrowserArgs,
	})
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{WebviewID: res.ID, Warnings: res.Warnings}, nil
}

func (s *Service) NavigateWebview(ctx context.Context, webviewID, url string) error {
	return s.ctrl.Navigate(ctx, webviewID, url)
}

func (s *Service) WebviewGoBack(ctx context.Context, webviewID string) error {
	return s.ctrl.GoBack(ctx, webviewID)
}

func (s *Service) WebviewGoForward(ctx context.Context, webviewID string) error {
	return s.ctrl.GoForward(ctx, webviewID)
}

func (s *Service) WebviewReload(ctx context.Context, webviewID string) error {
	return s.ctrl.Reload(ctx, webviewID)
}

func (s *Service) CloseWebview(ctx context.Context, webviewID string) error {
	return s.ctrl.Close(ctx, webviewID)
}

func (s *Service) GetWebview(webviewID string) (model.WebviewRecord, error) {
	return s.ctrl.Get(webviewID)
}

func (s *Service) ListWebviews() []model.WebviewRecord {
	return s.ctrl.List()
}

// WebviewHistory 返回某个 webview 的会话日志；已关闭的 webview 仍可查询。
func (s *Service) WebviewHistory(ctx context.Context, webviewID string, limit int) ([]model.Event, error) {
	if s.history == nil {
		return nil, errors.New("session journal is disabled")
	}
	return s.history.ListEvents(ctx, webviewID, limit)
}

// Engine 返回启动时选定的引擎配置。
func (s *Service) Engine() engineargs.Profile {
	return s.ctrl.Profile()
}

// EngineArgs 预览当前引擎配置下的最终参数列表。
func (s *Service) EngineArgs(extra []string) []string {
	return engineargs.BuildArgs(s.ctrl.Profile(), extra)
}

func (s *Service) FocusState() (FocusState, error) {
	b := s.ctrl.Blocker()
	if b == nil {
		return FocusState{}, errFocusDisabled
	}
	return FocusState{Active: b.Active(), Sites: b.Sites()}, nil
}

// UpdateFocus 开始/结束专注时段或替换屏蔽列表，返回更新后的状态。
// 已打开的 webview 不受影响，只拦截之后的 create/navigate。
func (s *Service) UpdateFocus(u FocusUpdate) (FocusState, error) {
	b := s.ctrl.Blocker()
	if b == nil {
		return FocusState{}, errFocusDisabled
	}
	if u.Sites != nil {
		b.SetSites(*u.Sites)
	}
	if u.Active != nil && *u.Active != b.Active() {
		b.SetActive(*u.Active)
		if *u.Active {
			s.log.Info("focus session started", "sites", len(b.Sites()))
		} else {
			s.log.Info("focus session ended")
		}
	}
	return s.FocusState()
}
