package model

import (
	"context"
	"errors"
)

// 错误类型：命令层把 err.Error() 原样返回给 UI，调用方用 errors.Is 判断种类。
var (
	ErrInvalidURL            = errors.New("invalid url")
	ErrWebviewNotFound       = errors.New("webview not found")
	ErrWebviewCreationFailed = errors.New("webview creation failed")
	ErrEngineOperationFailed = errors.New("engine operation failed")
	ErrURLBlocked            = errors.New("url blocked by focus session")
)

// WebviewRecord 是注册表中一个 webview 的可见状态。
type WebviewRecord struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// WindowSpec 是创建原生窗口所需的全部参数。
// BrowserArgs 已经是“基础参数 + 调用方参数”的合并结果，适配层原样透传。
type WindowSpec struct {
	ID           string
	URL          string
	Title        string
	Width        int
	Height       int
	Resizable    bool
	Center       bool
	Decorations  bool
	AlwaysOnTop  bool
	SkipTaskbar  bool
	WebSecurity  bool
	Fullscreen   bool
	BrowserArgs  []string
	EngineFamily string // chromium|edge
}

// WebviewHandle 是单个原生 webview 的操作句柄。
// 所有方法只负责“发起请求”，不等待页面加载完成。
type WebviewHandle interface {
	Navigate(url string) error
	GoBack() error
	GoForward() error
	Reload() error
	Close() error
}

// URLReporter 是可选能力：句柄能报告当前 URL 时，注册表据此刷新记录。
type URLReporter interface {
	CurrentURL() string
}

// Engine 负责在宿主系统上真正构建窗口。
// onClose 在窗口被关闭（用户关窗或 Close 调用）后恰好触发一次，可能来自任意 goroutine。
type Engine interface {
	Open(ctx context.Context, spec WindowSpec, onClose func()) (WebviewHandle, error)
}
