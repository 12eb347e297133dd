// Package chat persists and reloads conversations. It guards conversation
// existence, turns incoming messages into part rows, and rebuilds the
// ordered message history from storage.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/agent-chat/internal/ids"
	"github.com/rcliao/agent-chat/internal/logger"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/parts"
	"github.com/rcliao/agent-chat/internal/store"
)

var (
	// ErrInvalidConversation means the conversation ID is empty.
	ErrInvalidConversation = errors.New("invalid conversation id")
	// ErrInvalidRole means a message role is not user, assistant, or system.
	ErrInvalidRole = errors.New("invalid role")
)

// Service coordinates the store, the ID generator, and the part codec.
type Service struct {
	store      store.Store
	ids        *ids.Generator
	decomposer *parts.Decomposer
	log        *slog.Logger
	now        func() time.Time
}

// NewService wires a Service. A nil logger falls back to slog.Default.
func NewService(st store.Store, gen *ids.Generator, tools *model.ToolRegistry, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      st,
		ids:        gen,
		decomposer: parts.NewDecomposer(gen, tools),
		log:        log,
		now:        time.Now,
	}
}

// NewConversationID returns a fresh time-ordered UUID for callers that do
// not bring their own conversation ID.
func NewConversationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new conversation id: %w", err)
	}
	return id.String(), nil
}

// EnsureConversation creates the conversation on first use. Concurrent
// first turns for the same ID both succeed.
func (s *Service) EnsureConversation(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, ErrInvalidConversation
	}
	created, err := s.store.EnsureConversation(ctx, id)
	if err != nil {
		return false, err
	}
	if created {
		logger.From(logger.WithConversation(ctx, id), s.log).Info("conversation created")
	}
	return created, nil
}

// PersistMessage stores one finished turn. The turn and each persisted part
// receive new IDs minted here, so parts sort after everything already stored
// for the conversation. A message that cannot be decomposed writes nothing.
func (s *Service) PersistMessage(ctx context.Context, conversationID string, msg model.Message) (*model.MessageRow, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidConversation
	}
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}
	ctx = logger.WithConversation(ctx, conversationID)
	log := logger.From(ctx, s.log)

	row := model.MessageRow{
		ID:             s.ids.Next(),
		ConversationID: conversationID,
		Role:           msg.Role,
		CreatedAt:      s.now().UTC(),
	}

	rows, err := s.decomposer.Decompose(conversationID, row.ID, msg.Parts)
	if err != nil {
		log.Error("decompose message", "client_id", msg.ID, "error", err)
		return nil, fmt.Errorf("decompose message: %w", err)
	}

	if _, err := s.EnsureConversation(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("ensure conversation: %w", err)
	}

	if err := s.store.WriteMessage(ctx, row, rows); err != nil {
		log.Error("write message", "message_id", row.ID, "error", err)
		return nil, fmt.Errorf("write message: %w", err)
	}

	log.Debug("message persisted",
		"message_id", row.ID,
		"role", row.Role,
		"parts", rows.Len(),
		"dropped", len(msg.Parts)-rows.Len(),
	)
	return &row, nil
}

// LoadConversation returns every stored turn of a conversation in order.
// An unknown conversation yields an empty history.
func (s *Service) LoadConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidConversation
	}
	messages, rows, err := s.store.ReadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return parts.Reassemble(messages, rows), nil
}

// UserTurns counts the stored user messages of a conversation.
func (s *Service) UserTurns(ctx context.Context, conversationID string) (int, error) {
	history, err := s.LoadConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range history {
		if m.Role == model.RoleUser {
			n++
		}
	}
	return n, nil
}
