package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/agent-chat/internal/model"
)

// Transcript is the portable form of one conversation.
type Transcript struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []model.Message `json:"messages"`
}

// Export returns the transcript of one conversation, or of the newest
// limit conversations when conversationID is empty.
func (s *Service) Export(ctx context.Context, conversationID string, limit int) ([]Transcript, error) {
	var convs []model.Conversation
	if conversationID != "" {
		c, err := s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	} else {
		list, err := s.store.ListConversations(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			convs = append(convs, c.Conversation)
		}
	}

	out := make([]Transcript, 0, len(convs))
	for _, c := range convs {
		history, err := s.LoadConversation(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", c.ID, err)
		}
		out = append(out, Transcript{ID: c.ID, CreatedAt: c.CreatedAt, Messages: history})
	}
	return out, nil
}

// Import replays transcripts message by message. Every message is stored
// as a new turn, so importing into an existing conversation appends to it.
// It stops at the first failure and reports how many messages were stored.
func (s *Service) Import(ctx context.Context, transcripts []Transcript) (int, error) {
	imported := 0
	for _, t := range transcripts {
		if _, err := s.EnsureConversation(ctx, t.ID); err != nil {
			return imported, fmt.Errorf("import %s: %w", t.ID, err)
		}
		for _, m := range t.Messages {
			if _, err := s.PersistMessage(ctx, t.ID, m); err != nil {
				return imported, fmt.Errorf("import %s message %s: %w", t.ID, m.ID, err)
			}
			imported++
		}
	}
	return imported, nil
}
