package engineargs

import (
	"fmt"
	"strings"
)

// Profile 描述一种目标引擎的调优参数集合。
// 进程启动时选定一次，之后所有 webview 共用。
type Profile interface {
	// Name 是配置文件里使用的标识：chromium|edge。
	Name() string
	// Label 是展示给用户的引擎名称（get_system_info 使用）。
	Label() string
	// BaseFlags 返回该引擎的基础参数；返回值是副本，调用方可以随意修改。
	BaseFlags() []string
}

// DisableWebSecurityFlag 只在调用方显式传入 web_security=false 时由适配层追加。
const DisableWebSecurityFlag = "--disable-web-security"

var chromiumFlags = []string{
	"--disable-features=VizDisplayCompositor",
	"--enable-webgl",
	"--enable-gpu",
	"--enable-accelerated-2d-canvas",
	"--enable-accelerated-video-decode",
	"--enable-gpu-compositing",
	"--enable-hardware-overlays",
	"--enable-zero-copy",
	"--enable-native-gpu-memory-buffers",
	"--enable-gpu-rasterization",
	"--enable-oop-rasterization",
	"--enable-checker-imaging",
	"--enable-gpu-service-logging",
	"--enable-logging",
	"--v=1",
	"--enable-features=VaapiVideoDecoder",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-renderer-backgrounding",
	"--disable-field-trial-config",
	"--disable-back-forward-cache",
	"--disable-ipc-flooding-protection",
	"--enable-webgl2-compute-context",
	"--enable-gpu-service",
}

var edgeFlags = []string{
	"--enable-webgl",
	"--enable-gpu-acceleration",
	"--enable-hardware-acceleration",
	"--enable-gpu-rasterization",
	"--enable-smooth-scrolling",
	"--enable-directwrite",
	"--disable-dev-tools",
	"--disable-extensions",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-renderer-backgrounding",
	"--enable-threaded-compositing",
	"--enable-accelerated-2d-canvas",
	"--enable-accelerated-video-decode",
	"--disable-software-rasterizer",
	"--enable-webview2-features",
	"--enable-zero-copy",
	"--enable-native-gpu-memory-buffers",
	"--enable-oop-rasterization",
	"--enable-checker-imaging",
	"--disable-back-forward-cache",
	"--disable-ipc-flooding-protection",
	"--enable-webgl2-compute-context",
	"--enable-gpu-service",
	"--disable-background-mode",
	"--disable-gpu-sandbox",
	"--enable-hardware-overlays",
}

type staticProfile struct {
	name  string
	label string
	flags []string
}

func (p staticProfile) Name() string  { return p.name }
func (p staticProfile) Label() string { return p.label }

func (p staticProfile) BaseFlags() []string {
	out := make([]string, len(p.flags))
	copy(out, p.flags)
	return out
}

var (
	// Chromium 面向 Chromium 类内核（Linux/macOS 构建）。
	Chromium Profile = staticProfile{name: "chromium", label: "Chrome Engine", flags: chromiumFlags}
	// Edge 面向 Edge WebView2（Windows 构建）。
	Edge Profile = staticProfile{name: "edge", label: "Edge WebView2 Engine", flags: edgeFlags}
)

// Profiles 返回全部内置引擎配置，顺序固定。
func Profiles() []Profile {
	return []Profile{Chromium, Edge}
}

// ProfileByName 按配置名查找引擎配置（大小写不敏感）。
func ProfileByName(name string) (Profile, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "chromium", "chrome":
		return Chromium, nil
	case "edge", "webview2":
		return Edge, nil
	default:
		return nil, fmt.Errorf("unknown engine profile: %q", name)
	}
}

// BuildArgs 返回 base ++ extra：调用方参数追加在最后，不去重、不排序、不校验。
func BuildArgs(p Profile, extra []string) []string {
	base := p.BaseFlags()
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	out = append(out, extra...)
	return out
}
