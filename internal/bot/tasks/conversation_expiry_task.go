package tasks

import (
	"context"
	"fmt"
	"time"
)

// newConversationExpiryTask creates the task that drops conversations idle for
// longer than conversation.idle_ttl.
func newConversationExpiryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "conversation_expiry")

	return func(ctx context.Context) error {
		ttl := deps.Config.Conversation.IdleTTL
		if ttl <= 0 {
			log.DebugContext(ctx, "Conversation expiry disabled (idle_ttl <= 0)")
			return nil
		}

		startTime := time.Now()
		cutoff := deps.now().Add(-ttl)

		removed, err := deps.Store.Expire(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Conversation expiry failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("conversation expiry failed: %w", err)
		}

		log.InfoContext(ctx, "Expired idle conversations", "removed", removed, "idle_ttl", ttl, "duration", time.Since(startTime))
		return nil
	}
}
