package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"serenity-browser/internal/app"
	"serenity-browser/internal/services/engineargs"
)

// CLI 入口。所有子命令错误都统一输出到 stderr 并返回非 0 状态码。
func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run 是一级命令路由。
// 除 args/migrate/verify 外，其余子命令都通过本地命令 API 操作正在运行的 serenity-desktop。
func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}

	switch args[0] {
	case "create":
		return runCreate(ctx, args[1:], out)
	case "navigate":
		return runNavigate(ctx, args[1:], out)
	case "back", "forward", "reload":
		return runHistoryOp(ctx, args[0], args[1:], out)
	case "close":
		return runClose(ctx, args[1:], out)
	case "list":
		return runList(ctx, args[1:], out)
	case "history":
		return runHistory(ctx, args[1:], out)
	case "system":
		return runSystem(ctx, args[1:], out)
	case "focus":
		return runFocus(ctx, args[1:], out)
	case "args":
		return runArgs(args[1:], out)
	case "migrate":
		return runMigrate(ctx, args[1:], out)
	case "verify":
		return runVerify(ctx, args[1:], out)
	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// stringList 允许重复传入同一个 flag（--arg a --arg b）。
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, " ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func apiFlag(fs *flag.FlagSet) *string {
	return fs.String("api", "http://"+app.DefaultConfig().Listen, "command api base url")
}

// runCreate: serenity-cli create [-title T] [-width W] [-height H] [-insecure] [-fullscreen] [-arg F]... URL
func runCreate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	api := apiFlag(fs)
	title := fs.String("title", "Serenity Browser", "window title")
	width := fs.Int("width", 1200, "window width")
	height := fs.Int("height", 800, "window height")
	fixed := fs.Bool("fixed", false, "disable resizing")
	noCenter := fs.Bool("no-center", false, "do not center the window")
	noDecorations := fs.Bool("no-decorations", false, "hide window decorations")
	onTop := fs.Bool("on-top", false, "keep window above others")
	skipTaskbar := fs.Bool("skip-taskbar", false, "hide from taskbar")
	insecure := fs.Bool("insecure", false, "disable web security (same-origin policy)")
	fullscreen := fs.Bool("fullscreen", false, "open fullscreen")
	var extra stringList
	fs.Var(&extra, "arg", "additional browser arg (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: serenity-cli create [flags] URL")
	}

	body := map[string]any{
		"url":                   fs.Arg(0),
		"title":                 *title,
		"width":                 *width,
		"height":                *height,
		"resizable":             !*fixed,
		"center":                !*noCenter,
		"decorations":           !*noDecorations,
		"alwaysOnTop":           *onTop,
		"skipTaskbar":           *skipTaskbar,
		"webSecurity":           !*insecure,
		"additionalBrowserArgs": []string(extra),
	}
	if *fullscreen {
		body["fullscreen"] = true
	}

	var res struct {
		WebviewID string   `json:"webview_id"`
		Warnings  []string `json:"warnings"`
	}
	if err := newClient(*api).do(ctx, "POST", "/api/webviews", body, &res); err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Fprintln(out, res.WebviewID)
	return nil
}

func runNavigate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: serenity-cli navigate WEBVIEW_ID URL")
	}
	if err := newClient(*api).do(ctx, "POST", "/api/webviews/"+fs.Arg(0)+"/navigate", map[string]any{"url": fs.Arg(1)}, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func runHistoryOp(ctx context.Context, op string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(op, flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: serenity-cli %s WEBVIEW_ID", op)
	}
	if err := newClient(*api).do(ctx, "POST", "/api/webviews/"+fs.Arg(0)+"/"+op, nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func runClose(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: serenity-cli close WEBVIEW_ID")
	}
	if err := newClient(*api).do(ctx, "DELETE", "/api/webviews/"+fs.Arg(0), nil, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok")
	return nil
}

func runList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var res json.RawMessage
	if err := newClient(*api).do(ctx, "GET", "/api/webviews", nil, &res); err != nil {
		return err
	}
	return printJSON(out, res)
}

func runHistory(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	api := apiFlag(fs)
	limit := fs.Int("limit", 100, "max events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: serenity-cli history [-limit N] WEBVIEW_ID")
	}
	var res json.RawMessage
	path := fmt.Sprintf("/api/webviews/%s/history?limit=%d", fs.Arg(0), *limit)
	if err := newClient(*api).do(ctx, "GET", path, nil, &res); err != nil {
		return err
	}
	return printJSON(out, res)
}

func runSystem(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("system", flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var res struct {
		Info string `json:"info"`
	}
	if err := newClient(*api).do(ctx, "GET", "/api/system", nil, &res); err != nil {
		return err
	}
	fmt.Fprintln(out, res.Info)
	return nil
}

// runFocus: serenity-cli focus [on|off]；不带参数时只打印当前状态。
func runFocus(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("focus", flag.ContinueOnError)
	api := apiFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("usage: serenity-cli focus [on|off]")
	}

	var res struct {
		Active bool `json:"active"`
		Sites  []struct {
			Domain string `json:"domain"`
			Reason string `json:"reason"`
		} `json:"sites"`
	}
	c := newClient(*api)
	switch fs.Arg(0) {
	case "":
		if err := c.do(ctx, "GET", "/api/focus", nil, &res); err != nil {
			return err
		}
	case "on", "off":
		if err := c.do(ctx, "PUT", "/api/focus", map[string]any{"active": fs.Arg(0) == "on"}, &res); err != nil {
			return err
		}
	default:
		return fmt.Errorf("usage: serenity-cli focus [on|off]")
	}

	state := "off"
	if res.Active {
		state = "on"
	}
	fmt.Fprintf(out, "focus: %s\n", state)
	for _, s := range res.Sites {
		if s.Reason != "" {
			fmt.Fprintf(out, "  %s (%s)\n", s.Domain, s.Reason)
		} else {
			fmt.Fprintf(out, "  %s\n", s.Domain)
		}
	}
	return nil
}

// runArgs 本地打印引擎参数，不依赖运行中的服务。
func runArgs(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("args", flag.ContinueOnError)
	engine := fs.String("engine", app.DefaultConfig().Engine, "engine profile: chromium|edge")
	var extra stringList
	fs.Var(&extra, "arg", "additional browser arg (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := engineargs.ProfileByName(*engine)
	if err != nil {
		return err
	}
	for _, a := range engineargs.BuildArgs(p, extra) {
		fmt.Fprintln(out, a)
	}
	return nil
}

func printJSON(out io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `serenity-cli <command> [flags]

commands (via running serenity-desktop):
  create [flags] URL           open a new webview window
  navigate WEBVIEW_ID URL      load URL in a webview
  back|forward|reload ID       history traversal / reload
  close WEBVIEW_ID             close a webview window
  list                         list live webviews
  history [-limit N] ID        show journal events for a webview
  system                       show system / engine info
  focus [on|off]               show or toggle the focus blocklist

local commands:
  args [-engine E] [-arg F]... print merged engine args
  migrate [-db PATH]           create or upgrade the journal database
  verify [-db PATH]            verify the journal hash chain`)
}
