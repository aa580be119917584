package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
	"github.com/edgard/relaybot/internal/logger"
	"github.com/edgard/relaybot/internal/text"
)

type messageHandler struct {
	deps HandlerDeps
}

// NewMessageHandler creates the handler for every message that is not a command.
// It relays the user's conversation to the completion API and sends back the reply.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.handle(ctx, b, update)
}

func (h messageHandler) handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log = log.With("chat_id", chatID, "user_id", msg.From.ID, "request_id", logger.RequestID(ctx))

	defer recoverPanic(ctx, h.deps, s, update)

	if err := h.process(ctx, log, s, msg); err != nil {
		h.report(ctx, log, s, chatID, err)
	}
}

func (h messageHandler) process(ctx context.Context, log *slog.Logger, s Sender, msg *models.Message) error {
	if msg.Text == "" {
		return apperrors.NewInputRejected("message has no text")
	}

	userID, chatID := msg.From.ID, msg.Chat.ID
	log.InfoContext(ctx, "Received message", "text_preview", text.Truncate(msg.Text, 100))

	if err := h.deps.Store.Append(ctx, userID, conversation.UserMessage(msg.Text)); err != nil {
		return fmt.Errorf("failed to record user message: %w", err)
	}
	history, err := h.deps.Store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	reply, err := h.complete(ctx, s, chatID, history)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "Received completion", "reply_preview", text.Truncate(reply, 100))

	if err := h.deps.Store.Append(ctx, userID, conversation.AssistantMessage(reply)); err != nil {
		return fmt.Errorf("failed to record reply: %w", err)
	}

	return sendChunked(ctx, h.deps, s, chatID, reply)
}

func (h messageHandler) complete(ctx context.Context, s Sender, chatID int64, history []conversation.Message) (string, error) {
	stopTyping := startTyping(ctx, h.deps, s, chatID)
	defer stopTyping()

	aiCtx, cancel := withTimeout(ctx, h.deps.Config.AI.Timeout)
	defer cancel()

	return h.deps.Completion.Complete(aiCtx, history)
}

// report is the single place where a failed relay turns into a user-facing message.
func (h messageHandler) report(ctx context.Context, log *slog.Logger, s Sender, chatID int64, err error) {
	msgs := h.deps.Config.Messages

	var reply string
	switch code := apperrors.Code(err); code {
	case apperrors.CodeInputRejected:
		log.InfoContext(ctx, "Rejected non-text message")
		reply = msgs.TextOnly
	case apperrors.CodeRemoteFailure, apperrors.CodeMalformedResponse:
		log.ErrorContext(ctx, "Completion API failed", "code", code, "error", err)
		reply = msgs.RemoteError
	case apperrors.CodeEmptyReply:
		log.WarnContext(ctx, "Completion returned an empty reply", "error", err)
		reply = msgs.EmptyReply
	default:
		if ctx.Err() != nil {
			log.WarnContext(ctx, "Message processing interrupted", "error", err)
			return
		}
		log.ErrorContext(ctx, "Failed to process message", "code", code, "error", err)
		reply = msgs.GeneralError
	}

	_ = sendText(ctx, h.deps, s, chatID, reply, "")
}
