package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// startTyping shows the typing indicator in chatID right away and keeps it
// alive every interval until the returned stop function is called.
// Failures are logged and otherwise ignored.
func startTyping(ctx context.Context, deps HandlerDeps, s Sender, chatID int64) (stop func()) {
	sendTyping(ctx, deps, s, chatID)

	interval := deps.Config.Telegram.TypingInterval
	if interval <= 0 {
		return func() {}
	}

	typingCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				sendTyping(typingCtx, deps, s, chatID)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

func sendTyping(ctx context.Context, deps HandlerDeps, s Sender, chatID int64) {
	actionCtx, cancel := withTimeout(ctx, deps.Config.Telegram.SendTimeout)
	defer cancel()

	if _, err := s.SendChatAction(actionCtx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		if ctx.Err() != nil {
			return
		}
		deps.Logger.DebugContext(ctx, "Typing action failed", "error", err, "chat_id", chatID)
	}
}
