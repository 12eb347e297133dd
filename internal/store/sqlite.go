package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-chat/internal/model"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id          TEXT PRIMARY KEY,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

	CREATE TABLE IF NOT EXISTS message_texts (
		id                TEXT PRIMARY KEY,
		message_id        TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id   TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		text              TEXT NOT NULL,
		provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_texts_conversation ON message_texts(conversation_id);

	CREATE TABLE IF NOT EXISTS message_reasoning (
		id                TEXT PRIMARY KEY,
		message_id        TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id   TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		text              TEXT NOT NULL,
		provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_reasoning_conversation ON message_reasoning(conversation_id);

	CREATE TABLE IF NOT EXISTS message_tools (
		id                     TEXT PRIMARY KEY,
		message_id             TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id        TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		tool_call_id           TEXT NOT NULL,
		tool                   TEXT NOT NULL,
		state                  TEXT NOT NULL CHECK (state IN ('output-available', 'output-error')),
		input                  TEXT,
		output                 TEXT,
		error_text             TEXT,
		call_provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_tools_conversation ON message_tools(conversation_id);

	CREATE TABLE IF NOT EXISTS message_source_urls (
		id                TEXT PRIMARY KEY,
		message_id        TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id   TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		source_id         TEXT NOT NULL,
		url               TEXT NOT NULL,
		title             TEXT,
		provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_source_urls_conversation ON message_source_urls(conversation_id);

	CREATE TABLE IF NOT EXISTS message_data (
		id              TEXT PRIMARY KEY,
		message_id      TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		data_type       TEXT NOT NULL,
		data            TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_data_conversation ON message_data(conversation_id);

	CREATE TABLE IF NOT EXISTS message_files (
		id                TEXT PRIMARY KEY,
		message_id        TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id   TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		media_type        TEXT NOT NULL,
		url               TEXT NOT NULL,
		filename          TEXT,
		provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_files_conversation ON message_files(conversation_id);

	CREATE TABLE IF NOT EXISTS message_source_documents (
		id                TEXT PRIMARY KEY,
		message_id        TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		conversation_id   TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		source_id         TEXT NOT NULL,
		media_type        TEXT NOT NULL,
		title             TEXT NOT NULL,
		filename          TEXT,
		provider_metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_message_source_documents_conversation ON message_source_documents(conversation_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) EnsureConversation(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("ensure conversation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure conversation %s: %w", id, err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE id = ?`, id).Scan(&c.ID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &c, nil
}

func (s *SQLiteStore) ListConversations(ctx context.Context, limit int) ([]model.ConversationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.created_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id, c.created_at
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []model.ConversationSummary
	for rows.Next() {
		var c model.ConversationSummary
		var createdAt string
		if err := rows.Scan(&c.ID, &createdAt, &c.Messages); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) WriteMessage(ctx context.Context, msg model.MessageRow, rows *model.PartRows) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, created_at) VALUES (?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	// SQLite serializes writers, so the kind batches run back to back
	// inside the one transaction.
	for _, st := range partInserts(questionMark, rows) {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("insert parts: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ReadConversation(ctx context.Context, id string) ([]model.MessageRow, *model.PartRows, error) {
	return readConversation(ctx, s.query, questionMark, id, func(ctx context.Context) ([]model.MessageRow, error) {
		var out []model.MessageRow
		err := s.query(ctx,
			`SELECT id, conversation_id, role, created_at FROM messages WHERE conversation_id = ?`,
			[]any{id}, func(sc scanner) error {
				var m model.MessageRow
				var role, createdAt string
				if err := sc.Scan(&m.ID, &m.ConversationID, &role, &createdAt); err != nil {
					return err
				}
				m.Role = model.Role(role)
				m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
				out = append(out, m)
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("messages: %w", err)
		}
		return out, nil
	})
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args []any, each func(scanner) error) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
