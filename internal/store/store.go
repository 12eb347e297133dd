// Package store persists conversations, messages, and message parts in a
// relational database (SQLite or PostgreSQL).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/model"
)

// ErrNotFound indicates the requested conversation does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the conversation storage interface.
type Store interface {
	// EnsureConversation creates the conversation if it does not exist yet.
	// Concurrent callers racing on the same id all succeed; exactly one
	// of them sees created == true.
	EnsureConversation(ctx context.Context, id string) (created bool, err error)

	// GetConversation returns a conversation or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)

	// ListConversations returns conversations, newest first.
	ListConversations(ctx context.Context, limit int) ([]model.ConversationSummary, error)

	// DeleteConversation removes a conversation together with its messages
	// and parts.
	DeleteConversation(ctx context.Context, id string) error

	// WriteMessage stores a message row and its part rows as one unit.
	// Either all of them become visible or none do.
	WriteMessage(ctx context.Context, msg model.MessageRow, rows *model.PartRows) error

	// ReadConversation returns every message row and every part row of a
	// conversation, unsorted.
	ReadConversation(ctx context.Context, id string) ([]model.MessageRow, *model.PartRows, error)

	// Search finds text and reasoning parts containing a substring.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Stats returns row counts.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying database handle.
	Close() error
}

// Open connects to the backend selected by cfg.Store.Driver. For
// PostgreSQL pending migrations are applied first.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.Store.Path)
	case config.DriverPostgres:
		if err := RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
