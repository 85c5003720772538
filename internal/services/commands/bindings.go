package commands

import (
	"context"

	"serenity-browser/internal/adapters/webview"
)

// Bindings 把命令按原有名称暴露给主窗口 JS（window.create_webview(...) 等）。
// webview_go 会把 error 转成 Promise reject，消息即 err.Error()。
func (s *Service) Bindings(ctx context.Context) []webview.Binding {
	return []webview.Binding{
		{Name: "greet", Fn: s.Greet},
		{Name: "get_system_info", Fn: s.SystemInfo},
		{Name: "open_browser", Fn: func(url string) error {
			return s.OpenBrowser(ctx, url)
		}},
		{Name: "create_webview", Fn: func(args CreateWebviewArgs) (CreateResult, error) {
			return s.CreateWebview(ctx, args)
		}},
		{Name: "navigate_webview", Fn: func(webviewID, url string) error {
			return s.NavigateWebview(ctx, webviewID, url)
		}},
		{Name: "webview_go_back", Fn: func(webviewID string) error {
			return s.WebviewGoBack(ctx, webviewID)
		}},
		{Name: "webview_go_forward", Fn: func(webviewID string) error {
			return s.WebviewGoForward(ctx, webviewID)
		}},
		{Name: "webview_reload", Fn: func(webviewID string) error {
			return s.WebviewReload(ctx, webviewID)
		}},
	}
}
