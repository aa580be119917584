package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

// openAIClient talks to any OpenAI-compatible endpoint through the official SDK.
type openAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// NewOpenAIClient creates a client backed by the OpenAI Go SDK. SDK retries are disabled.
func NewOpenAIClient(cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Token),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &openAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log.With("component", "openai_client"),
	}
}

func (c *openAIClient) Complete(ctx context.Context, history []conversation.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toOpenAIMessages(history),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}

	c.log.DebugContext(ctx, "Sending completion request", "model", c.model, "message_count", len(history))

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := apiErr.RawJSON()
			if len(body) > maxErrorBody {
				body = body[:maxErrorBody]
			}
			c.log.ErrorContext(ctx, "Completion API error", "status", apiErr.StatusCode, "body", body)
			return "", apperrors.NewRemoteFailure(apiErr.StatusCode, body)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", apperrors.NewMalformedResponse("openai returned no choices", nil)
	}

	return checkReply(completion.Choices[0].Message.Content)
}

func toOpenAIMessages(history []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(history))
	for i, m := range history {
		switch m.Role {
		case conversation.RoleAssistant:
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}
