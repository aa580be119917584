package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/conversation"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []conversation.Message `json:"messages"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
}

// chatResponse uses pointers so a missing field can be told apart from an empty one.
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openRouterClient struct {
	httpClient  *http.Client
	endpoint    string
	token       string
	model       string
	maxTokens   int
	temperature float64
	log         *slog.Logger
}

// NewOpenRouterClient creates a client for an OpenRouter-style chat completions endpoint.
func NewOpenRouterClient(cfg config.AIConfig, httpClient *http.Client, log *slog.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultAIBaseURL
	}

	return &openRouterClient{
		httpClient:  httpClient,
		endpoint:    strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		token:       cfg.Token,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log.With("component", "openrouter_client"),
	}
}

func (c *openRouterClient) Complete(ctx context.Context, history []conversation.Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    history,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log.DebugContext(ctx, "Sending completion request", "model", c.model, "message_count", len(history))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.ErrorContext(ctx, "Completion API error", "status", resp.StatusCode, "body", string(errorBody))
		return "", apperrors.NewRemoteFailure(resp.StatusCode, string(errorBody))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewMalformedResponse("completion response is not valid JSON", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil || parsed.Choices[0].Message.Content == nil {
		return "", apperrors.NewMalformedResponse("completion response has no choices[0].message.content", nil)
	}

	return checkReply(*parsed.Choices[0].Message.Content)
}
