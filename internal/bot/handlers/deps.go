package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/completion"
	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/conversation"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      conversation.Store
	Completion completion.Client
	Locks      *conversation.KeyedMutex
}

// Sender is the subset of the Telegram client used to talk back to a chat.
// *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

var _ Sender = (*bot.Bot)(nil)
