package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	sqliteadapter "serenity-browser/internal/adapters/store/sqlite"
	"serenity-browser/internal/app"
	"serenity-browser/internal/services/journalverify"
)

// runMigrate 执行 SQLite 迁移，确保会话日志库结构完整。
func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", app.DefaultConfig().DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := sqliteadapter.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(out, "migrations applied successfully: db=%s\n", *dbPath)
	return nil
}

// runVerify 离线校验会话日志哈希链；发现异常时返回错误（非 0 退出码）。
func runVerify(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	dbPath := fs.String("db", app.DefaultConfig().DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := sqliteadapter.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := sqliteadapter.NewStore(db).ListAllEvents(ctx)
	if err != nil {
		return err
	}
	res := journalverify.Verify(events)

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	if !res.OK {
		return fmt.Errorf("journal verification failed: %d of %d events", res.Failed, res.Total)
	}
	return nil
}
