package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/platform/hash"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store 封装会话日志（webview_events）的读写。
type Store struct {
	db *sql.DB

	// appendMu 保证“读上一条 chain_hash → 写新记录”不被并发打断。
	appendMu sync.Mutex
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open 打开（必要时创建）sqlite 文件并执行迁移。
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := NewMigrator(db).Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}

// GetSchemaMetaValue 查询 schema_meta 表指定 key 的 value。
func (s *Store) GetSchemaMetaValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value
		FROM schema_meta
		WHERE key = ?
		LIMIT 1
	`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query schema_meta %s: %w", key, err)
	}
	return v, nil
}

// ChainHash 是会话日志哈希链的计算公式；校验方必须使用同一公式。
func ChainHash(prev string, ev model.Event) string {
	return hash.Text(
		prev,
		ev.EventID,
		ev.WebviewID,
		string(ev.Kind),
		ev.URL,
		ev.Detail,
		strconv.FormatInt(ev.OccurredAt, 10),
	)
}

// AppendEvent 追加一条事件，自动补齐 event_id / occurred_at 并串入哈希链。
func (s *Store) AppendEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	if ev.WebviewID == "" {
		return model.Event{}, errors.New("append event: webview id is required")
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.OccurredAt == 0 {
		ev.OccurredAt = time.Now().Unix()
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	var prev string
	err := s.db.QueryRowContext(ctx, `
		SELECT chain_hash
		FROM webview_events
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("query last chain hash: %w", err)
	}

	ev.ChainPrevHash = prev
	ev.ChainHash = ChainHash(prev, ev)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webview_events(
			event_id, webview_id, kind, url, detail, occurred_at, chain_prev_hash, chain_hash
		)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.EventID, ev.WebviewID, string(ev.Kind), ev.URL, ev.Detail, ev.OccurredAt, ev.ChainPrevHash, ev.ChainHash)
	if err != nil {
		return model.Event{}, fmt.Errorf("insert webview event: %w", err)
	}
	return ev, nil
}

// ListEvents 按写入顺序返回某个 webview 的事件；limit<=0 表示不限制。
func (s *Store) ListEvents(ctx context.Context, webviewID string, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, webview_id, kind, url, detail, occurred_at, chain_prev_hash, chain_hash
		FROM webview_events
		WHERE webview_id = ?
		ORDER BY seq ASC
		LIMIT ?
	`, webviewID, limit)
	if err != nil {
		return nil, fmt.Errorf("query webview events: %w", err)
	}
	return scanEvents(rows)
}

// ListAllEvents 返回全部事件（按写入顺序），用于哈希链校验。
func (s *Store) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, webview_id, kind, url, detail, occurred_at, chain_prev_hash, chain_hash
		FROM webview_events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all webview events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var kind string
		if err := rows.Scan(&ev.EventID, &ev.WebviewID, &kind, &ev.URL, &ev.Detail, &ev.OccurredAt, &ev.ChainPrevHash, &ev.ChainHash); err != nil {
			return nil, fmt.Errorf("scan webview event: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webview events: %w", err)
	}
	return out, nil
}
