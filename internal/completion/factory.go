package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/relaybot/internal/config"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

// New creates the completion client selected by cfg.Provider.
func New(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter, "":
		return NewOpenRouterClient(cfg, nil, log), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, nil, log), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, nil, log)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown completion provider %q", cfg.Provider), nil)
	}
}
