// Package logger provides structured logging for the bot.
// It uses Go's slog package with a runtime-adjustable level and an update logging middleware.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/edgard/relaybot/internal/text"
)

const previewLength = 50

var level = new(slog.LevelVar)

type requestIDKey struct{}

// NewLogger creates a new slog Logger writing to stdout and sets it as the default.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	SetLevel(levelStr)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// SetLevel changes the level of every logger created by NewLogger.
func SetLevel(levelStr string) {
	level.Set(ParseLevel(levelStr))
}

// ParseLevel maps a configuration level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestID returns the id assigned to the update being processed, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Middleware creates a logging middleware for the Telegram bot.
// It tags each update with a request id and logs when processing starts and ends.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			requestID := uuid.NewString()
			ctx = context.WithValue(ctx, requestIDKey{}, requestID)

			logEntry := updateLogger(log, update).With("request_id", requestID)
			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func updateLogger(log *slog.Logger, update *models.Update) *slog.Logger {
	logEntry := log.With("update_id", update.ID)

	var updateType string
	switch {
	case update.Message != nil:
		updateType = "message"
		var userID int64
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		logEntry = logEntry.With(
			"message_id", update.Message.ID,
			"chat_id", update.Message.Chat.ID,
			"user_id", userID,
			"text_preview", text.Truncate(update.Message.Text, previewLength),
		)
	case update.EditedMessage != nil:
		updateType = "edited_message"
		logEntry = logEntry.With(
			"message_id", update.EditedMessage.ID,
			"chat_id", update.EditedMessage.Chat.ID,
		)
	default:
		updateType = "other"
	}

	return logEntry.With("update_type", updateType)
}
