package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "serenity.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8797" || cfg.MainWindow.Width != 1200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := cfg.Profile(); err != nil {
		t.Fatalf("default profile: %v", err)
	}
}

func TestLoadConfig_MergesFile(t *testing.T) {
	p := writeConfig(t, `
engine: edge
headless: true
extra_browser_args: ["--enable-webgl", "--enable-webgl"]
main_window:
  title: Focus
  width: 800
  height: 600
focus:
  enabled: true
  blocklist:
    - domain: reddit.com
      reason: Social News
`)
	cfg, err := LoadConfig(context.Background(), p)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine != "edge" || !cfg.Headless {
		t.Fatalf("unexpected engine/headless: %+v", cfg)
	}
	if cfg.Listen != "127.0.0.1:8797" {
		t.Fatalf("listen default should survive partial file: %q", cfg.Listen)
	}
	if len(cfg.ExtraBrowserArgs) != 2 {
		t.Fatalf("extra args should keep duplicates: %v", cfg.ExtraBrowserArgs)
	}
	if !cfg.Focus.Enabled || len(cfg.Focus.Blocklist) != 1 || cfg.Focus.Blocklist[0].Reason != "Social News" {
		t.Fatalf("unexpected focus config: %+v", cfg.Focus)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown engine":  "engine: gecko\n",
		"bad size":        "main_window:\n  width: 0\n  height: 10\n",
		"dup blocklist":   "focus:\n  blocklist:\n    - domain: a.com\n    - domain: A.com\n",
		"empty blocklist": "focus:\n  blocklist:\n    - reason: x\n",
		"malformed yaml":  "engine: [\n",
	}
	for name, body := range cases {
		if _, err := LoadConfig(context.Background(), writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if _, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file: expected error")
	}
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), filepath.Join("..", "..", "configs", "serenity.example.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig example: %v", err)
	}
	if cfg.Engine != "chromium" || cfg.Focus.Enabled {
		t.Fatalf("unexpected example config: %+v", cfg)
	}
	if len(cfg.Focus.Blocklist) != 6 {
		t.Fatalf("blocklist len=%d want=6", len(cfg.Focus.Blocklist))
	}
	if len(cfg.ExtraBrowserArgs) != 1 || cfg.ExtraBrowserArgs[0] != "--lang=en-US" {
		t.Fatalf("extra args=%v", cfg.ExtraBrowserArgs)
	}
}
