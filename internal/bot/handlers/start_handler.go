package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler clears the sender's conversation and greets them.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h startHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID, userID := update.Message.Chat.ID, update.Message.From.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", userID)

	if err := h.deps.Store.Reset(ctx, userID); err != nil {
		log.ErrorContext(ctx, "Failed to reset conversation", "error", err, "user_id", userID)
		_ = sendText(ctx, h.deps, s, chatID, h.deps.Config.Messages.GeneralError, "")
		return
	}

	if err := sendText(ctx, h.deps, s, chatID, h.deps.Config.Messages.Welcome, ""); err == nil {
		log.DebugContext(ctx, "Successfully sent welcome message", "chat_id", chatID)
	}
}
