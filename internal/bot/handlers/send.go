package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/edgard/relaybot/internal/text"
)

// withTimeout bounds ctx by d; a non-positive d leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// sendText sends a single message and logs failures.
func sendText(ctx context.Context, deps HandlerDeps, s Sender, chatID int64, msg string, parseMode models.ParseMode) error {
	sendCtx, cancel := withTimeout(ctx, deps.Config.Telegram.SendTimeout)
	defer cancel()

	_, err := s.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      msg,
		ParseMode: parseMode,
	})
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

// sendChunked splits reply into Telegram-sized parts and sends them in order,
// waiting at least the pacing interval between consecutive parts. It stops at
// the first failed send.
func sendChunked(ctx context.Context, deps HandlerDeps, s Sender, chatID int64, reply string) error {
	parts := text.SplitUTF16(reply, deps.Config.Telegram.MaxMessageLength)
	log := deps.Logger.With("chat_id", chatID)
	log.InfoContext(ctx, "Sending reply", "parts", len(parts))

	limit := rate.Inf
	if interval := deps.Config.Telegram.PacingInterval; interval > 0 {
		limit = rate.Every(interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, part := range parts {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing interrupted before part %d/%d: %w", i+1, len(parts), err)
		}

		log.DebugContext(ctx, "Sending reply part", "part", i+1, "total", len(parts), "preview", text.Truncate(part, 50))
		if err := sendText(ctx, deps, s, chatID, part, ""); err != nil {
			return fmt.Errorf("part %d/%d: %w", i+1, len(parts), err)
		}
	}

	log.InfoContext(ctx, "Reply sent successfully", "parts", len(parts))
	return nil
}
