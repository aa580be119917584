// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// PerUser creates a middleware that processes one update at a time per sender.
// Updates from different users still run concurrently.
func PerUser(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil || deps.Locks == nil {
				next(ctx, bot, update)
				return
			}

			unlock := deps.Locks.Lock(update.Message.From.ID)
			defer unlock()

			next(ctx, bot, update)
		}
	}
}

// Recover creates a middleware that stops a panicking handler from taking down
// the polling loop. The user is told something went wrong.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			var sender Sender
			if bot != nil {
				sender = bot
			}
			defer recoverPanic(ctx, deps, sender, update)

			next(ctx, bot, update)
		}
	}
}

// recoverPanic must be deferred directly.
func recoverPanic(ctx context.Context, deps HandlerDeps, s Sender, update *models.Update) {
	r := recover()
	if r == nil {
		return
	}

	log := deps.Logger.With("middleware", "Recover")
	log.ErrorContext(ctx, "Recovered from panic in handler", "panic", r, "update_id", update.ID, "stack", string(debug.Stack()))

	if s == nil || update.Message == nil {
		return
	}
	sendText(ctx, deps, s, update.Message.Chat.ID, deps.Config.Messages.GeneralError, "")
}
