package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

type geminiClient struct {
	models        *genai.Models
	model         string
	contentConfig *genai.GenerateContentConfig
	log           *slog.Logger
}

// NewGeminiClient creates a client for Google's Gemini API. BaseURL, when set,
// replaces the default Gemini endpoint.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) (Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" && cfg.BaseURL != config.DefaultAIBaseURL {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := float32(cfg.Temperature)
	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)

	return &geminiClient{
		models: gi.Models,
		model:  cfg.Model,
		contentConfig: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: int32(cfg.MaxTokens),
		},
		log: logger,
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, history []conversation.Message) (string, error) {
	c.log.DebugContext(ctx, "Generating reply", "model", c.model, "message_count", len(history))

	resp, err := c.models.GenerateContent(ctx, c.model, toGeminiContents(history), c.contentConfig)
	if err != nil {
		if remoteErr := geminiRemoteFailure(err); remoteErr != nil {
			c.log.ErrorContext(ctx, "Gemini API error", "error", err)
			return "", remoteErr
		}
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if promptBlocked(resp.PromptFeedback) {
		c.log.WarnContext(ctx, "Gemini request blocked", "reason", resp.PromptFeedback.BlockReason)
		return "", apperrors.NewEmptyReply(fmt.Sprintf("gemini blocked the prompt: %v", resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 {
		return "", apperrors.NewMalformedResponse("gemini returned no candidates", nil)
	}

	return checkReply(resp.Text())
}

// promptBlocked reports whether the feedback carries an actual block reason.
// Feedback with only safety ratings leaves BlockReason empty.
func promptBlocked(fb *genai.GenerateContentResponsePromptFeedback) bool {
	return fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified
}

// geminiRemoteFailure converts a genai.APIError into a remote failure, or returns nil.
func geminiRemoteFailure(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.NewRemoteFailure(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apperrors.NewRemoteFailure(apiErrPtr.Code, apiErrPtr.Message)
	}
	return nil
}

func toGeminiContents(history []conversation.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == conversation.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
