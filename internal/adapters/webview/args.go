package webview

import (
	"errors"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/engineargs"
)

// ErrNativeUnavailable 表示当前构建不带原生 webview（例如 CGO_ENABLED=0）。
var ErrNativeUnavailable = errors.New("native webview is not available in this build")

// Binding 是注入到主窗口 JS 环境中的一个命令。
// Fn 的签名遵循 webview_go Bind 的约定：返回值为 (T, error)、error 或空。
type Binding struct {
	Name string
	Fn   any
}

// MainWindowOptions 描述承载内置 UI 的主窗口。
type MainWindowOptions struct {
	Title  string
	URL    string
	Width  int
	Height int
	Debug  bool
}

// EngineArgs 计算最终交给引擎的参数列表。
// web_security=false 时在末尾追加 --disable-web-security；其余情况原样返回。
func EngineArgs(spec model.WindowSpec) []string {
	out := make([]string, 0, len(spec.BrowserArgs)+1)
	out = append(out, spec.BrowserArgs...)
	if !spec.WebSecurity {
		out = append(out, engineargs.DisableWebSecurityFlag)
	}
	return out
}
