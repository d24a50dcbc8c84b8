package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rushteam/foryou/core"
)

// SQLiteLog 是基于 SQLite 的持久化交互日志。
// 只保存最小事件记录：用户、文章、类型、文本快照、时间。
type SQLiteLog struct {
	conn *sql.DB
}

// NewSQLiteLog 打开（或创建）数据库并初始化表结构，path 可为 ":memory:"。
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite 单写者；":memory:" 每个连接是独立的库
	conn.SetMaxOpenConns(1)

	l := &SQLiteLog{conn: conn}
	if err := l.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		article_text TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user_time ON interactions(user_id, created_at DESC);
	`
	_, err := l.conn.Exec(schema)
	return err
}

// Close 关闭数据库连接。
func (l *SQLiteLog) Close() error {
	return l.conn.Close()
}

func (l *SQLiteLog) Record(ctx context.Context, event core.InteractionEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := l.conn.ExecContext(ctx,
		`INSERT INTO interactions (user_id, article_id, kind, article_text, created_at) VALUES (?, ?, ?, ?, ?)`,
		event.UserID, event.ArticleID, string(event.Kind), event.ArticleText, event.Timestamp.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

func (l *SQLiteLog) History(ctx context.Context, userID string, limit int) ([]core.InteractionEvent, error) {
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 表示不限制
	}
	rows, err := l.conn.QueryContext(ctx, `
		SELECT user_id, article_id, kind, article_text, created_at
		FROM interactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var events []core.InteractionEvent
	for rows.Next() {
		var (
			ev   core.InteractionEvent
			kind string
			ts   int64
		)
		if err := rows.Scan(&ev.UserID, &ev.ArticleID, &kind, &ev.ArticleText, &ts); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		ev.Kind = core.Kind(kind)
		ev.Timestamp = time.Unix(0, ts).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return events, nil
}

var _ core.InteractionLog = (*SQLiteLog)(nil)
