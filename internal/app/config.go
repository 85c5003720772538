package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"serenity-browser/internal/services/engineargs"
	"serenity-browser/internal/services/focus"

	"gopkg.in/yaml.v3"
)

// MainWindow 是承载内置 UI 的主窗口配置。
type MainWindow struct {
	Title  string `yaml:"title"`
	URL    string `yaml:"url,omitempty"` // 为空时指向内置 API 服务的首页
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Focus 是专注模式（分心站点屏蔽）配置。
type Focus struct {
	Enabled   bool         `yaml:"enabled"`
	Blocklist []focus.Site `yaml:"blocklist,omitempty"`
}

// Config 存放应用级配置：默认值见 DefaultConfig，可被 YAML 文件与命令行参数覆盖。
type Config struct {
	Engine           string     `yaml:"engine"` // chromium|edge
	Listen           string     `yaml:"listen"`
	DBPath           string     `yaml:"db_path"` // 为空表示不写会话日志
	Headless         bool       `yaml:"headless"`
	Debug            bool       `yaml:"debug"`
	ExtraBrowserArgs []string   `yaml:"extra_browser_args,omitempty"`
	MainWindow       MainWindow `yaml:"main_window"`
	Focus            Focus      `yaml:"focus"`
}

// DefaultConfig 返回本地运行的默认配置。
// Windows 构建默认走 Edge WebView2，其它平台走 Chromium 参数集。
func DefaultConfig() Config {
	engine := "chromium"
	if isWindows() {
		engine = "edge"
	}
	return Config{
		Engine: engine,
		Listen: "127.0.0.1:8797",
		DBPath: "data/serenity.db",
		MainWindow: MainWindow{
			Title:  "Serenity Browser",
			Width:  1200,
			Height: 800,
		},
	}
}

// LoadConfig 在默认配置之上合并 YAML 文件并校验。path 为空时只返回默认配置。
func LoadConfig(ctx context.Context, path string) (Config, error) {
	cfg := DefaultConfig()
	if err := ctx.Err(); err != nil {
		return cfg, err
	}
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate 检查配置的完整性。
func (c Config) Validate() error {
	if _, err := engineargs.ProfileByName(c.Engine); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return errors.New("config: listen is required")
	}
	if c.MainWindow.Width <= 0 || c.MainWindow.Height <= 0 {
		return fmt.Errorf("config: main_window size must be positive: %dx%d", c.MainWindow.Width, c.MainWindow.Height)
	}

	seen := make(map[string]struct{}, len(c.Focus.Blocklist))
	for _, s := range c.Focus.Blocklist {
		d := strings.ToLower(strings.TrimSpace(s.Domain))
		if d == "" {
			return errors.New("config: blocklist domain is required")
		}
		if _, ok := seen[d]; ok {
			return fmt.Errorf("config: duplicate blocklist domain: %s", d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// Profile 返回配置选定的引擎参数集。
func (c Config) Profile() (engineargs.Profile, error) {
	return engineargs.ProfileByName(c.Engine)
}
