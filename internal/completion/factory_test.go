package completion

import (
	"context"
	"testing"

	"github.com/edgard/relaybot/internal/config"
	apperrors "github.com/edgard/relaybot/internal/errors"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		wantType string
		wantErr  bool
	}{
		{provider: config.ProviderOpenRouter, wantType: "openrouter"},
		{provider: "", wantType: "openrouter"},
		{provider: config.ProviderOpenAI, wantType: "openai"},
		{provider: config.ProviderGemini, wantType: "gemini"},
		{provider: "bard", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Parallel()

			cfg := testAIConfig("")
			cfg.Provider = tt.provider
			client, err := New(context.Background(), cfg, discardLogger())

			if tt.wantErr {
				if apperrors.Code(err) != apperrors.CodeConfig {
					t.Fatalf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			var gotType string
			switch client.(type) {
			case *openRouterClient:
				gotType = "openrouter"
			case *openAIClient:
				gotType = "openai"
			case *geminiClient:
				gotType = "gemini"
			}
			if gotType != tt.wantType {
				t.Errorf("New() returned %T, want %s client", client, tt.wantType)
			}
		})
	}
}

func TestOpenRouterDefaultBaseURL(t *testing.T) {
	t.Parallel()

	client := NewOpenRouterClient(testAIConfig(""), nil, discardLogger()).(*openRouterClient)
	if client.endpoint != "https://openrouter.ai/api/v1/chat/completions" {
		t.Errorf("endpoint = %q", client.endpoint)
	}
}
