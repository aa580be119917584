package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/relaybot/internal/conversation"
)

// newStoreMaintenanceTask creates the scheduled task function for running store maintenance.
// Stores that need no housekeeping make it a no-op.
func newStoreMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_maintenance")

	return func(ctx context.Context) error {
		maintainer, ok := deps.Store.(conversation.Maintainer)
		if !ok {
			log.DebugContext(ctx, "Store does not require maintenance, skipping")
			return nil
		}

		log.InfoContext(ctx, "Starting scheduled store maintenance task...")
		startTime := time.Now()

		err := maintainer.Maintain(ctx)

		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Store maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("store maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled store maintenance task completed successfully", "duration", duration)
		return nil
	}
}
