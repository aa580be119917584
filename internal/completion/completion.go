// Package completion sends conversation histories to a chat-completion
// provider and returns the model's single textual reply.
package completion

import (
	"context"
	"strings"

	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// Client defines the completion operation used by the message handler.
// Failures carry an error code from the errors package: REMOTE_FAILURE,
// MALFORMED_RESPONSE or EMPTY_REPLY. Anything else is a transport fault.
type Client interface {
	Complete(ctx context.Context, history []conversation.Message) (string, error)
}

// checkReply rejects replies that contain no visible text.
func checkReply(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperrors.NewEmptyReply("completion returned an empty reply")
	}
	return content, nil
}
