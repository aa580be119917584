// Package conversation holds per-user chat histories that are forwarded to the
// completion API, together with the primitives used to serialize access per user.
package conversation

import (
	"context"
	"time"
)

// Role identifies the author of a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged history entry. It is never modified after creation.
type Message struct {
	Role    Role   `json:"role"    db:"role"`
	Content string `json:"content" db:"content"`
}

// UserMessage returns a history entry authored by the user.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns a history entry authored by the model.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Store defines the operations on conversation histories keyed by user ID.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a copy of the user's history, creating an empty one on first access.
	Get(ctx context.Context, userID int64) ([]Message, error)

	// Append adds msg to the end of the user's history.
	Append(ctx context.Context, userID int64, msg Message) error

	// Reset replaces the user's history with an empty one.
	Reset(ctx context.Context, userID int64) error

	// Expire removes conversations with no activity since idleSince and
	// returns how many were removed.
	Expire(ctx context.Context, idleSince time.Time) (int, error)
}

// Maintainer is implemented by stores that need periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Trim bounds history to the newest maxMessages entries and drops leading
// assistant entries so the result starts with a user turn. A maxMessages
// below 1 leaves history untouched.
func Trim(history []Message, maxMessages int) []Message {
	if maxMessages <= 0 || len(history) <= maxMessages {
		return history
	}

	history = history[len(history)-maxMessages:]
	for len(history) > 0 && history[0].Role != RoleUser {
		history = history[1:]
	}
	return history
}
