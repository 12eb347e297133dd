package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// conversationKey is the context key for the conversation ID.
var conversationKey = contextKey{}

// WithConversation returns a new context with the given conversation ID stored.
func WithConversation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationKey, id)
}

// ConversationID extracts the conversation ID from the context.
// Returns an empty string if none is set.
func ConversationID(ctx context.Context) string {
	id, _ := ctx.Value(conversationKey).(string)
	return id
}

// From returns base annotated with the conversation ID carried by ctx, or
// base itself when ctx carries none.
func From(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := ConversationID(ctx); id != "" {
		return base.With("conversation_id", id)
	}
	return base
}
