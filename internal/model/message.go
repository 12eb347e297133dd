// Package model defines the conversation, message, and message-part types.
package model

import "time"

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRoles are the allowed message roles.
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleSystem:    true,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return ValidRoles[r]
}

// Conversation is a chat thread. It is created lazily on its first message.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is a Conversation with its message count.
type ConversationSummary struct {
	Conversation
	Messages int `json:"messages"`
}

// Message is one turn of a conversation together with its ordered parts.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId,omitempty"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	Parts          Parts     `json:"parts"`
}

// MessageRow is the stored form of a message. Part order is not kept here;
// it is recovered from part identifiers.
type MessageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}
