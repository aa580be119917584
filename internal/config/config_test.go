package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/edgard/relaybot/internal/errors"
)

// requiredEnv sets the two mandatory secrets so Load can succeed.
func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("OPENROUTER_API_KEY", "or-key")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "tg-token" || cfg.AI.Token != "or-key" {
		t.Errorf("tokens not read from environment: %+v / %+v", cfg.Telegram, cfg.AI)
	}
	if cfg.AI.Provider != ProviderOpenRouter {
		t.Errorf("Provider = %q, want %q", cfg.AI.Provider, ProviderOpenRouter)
	}
	if cfg.AI.BaseURL != DefaultAIBaseURL || cfg.AI.Model != DefaultAIModel {
		t.Errorf("unexpected AI endpoint defaults: %+v", cfg.AI)
	}
	if cfg.AI.MaxTokens != 1024 || cfg.AI.Temperature != 0.7 || cfg.AI.Timeout != 2*time.Minute {
		t.Errorf("unexpected AI request defaults: %+v", cfg.AI)
	}
	if cfg.Telegram.MaxMessageLength != 4096 || cfg.Telegram.PacingInterval != 500*time.Millisecond {
		t.Errorf("unexpected Telegram defaults: %+v", cfg.Telegram)
	}
	if cfg.Conversation.Backend != BackendMemory || cfg.Conversation.MaxMessages != 40 {
		t.Errorf("unexpected conversation defaults: %+v", cfg.Conversation)
	}
	if cfg.Messages != DefaultMessages {
		t.Errorf("messages = %+v, want defaults", cfg.Messages)
	}
	for name, want := range DefaultTasks {
		if got := cfg.Scheduler.Tasks[name]; got != want {
			t.Errorf("task %s = %+v, want %+v", name, got, want)
		}
	}
}

func TestLoadMissingTokens(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := Load("", "")
	if err == nil {
		t.Fatal("expected validation error without tokens")
	}
	if code := apperrors.Code(err); code != apperrors.CodeConfig {
		t.Errorf("Code() = %q, want %q", code, apperrors.CodeConfig)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	requiredEnv(t)
	t.Setenv("RELAYBOT_AI_MODEL", "env/model")

	path := writeFile(t, "config.yaml", `
logger:
  level: debug
ai:
  model: file/model
  temperature: 1.2
telegram:
  pacing_interval: 1s
conversation:
  backend: sqlite
  sqlite_path: relay.db
scheduler:
  tasks:
    store_maintenance:
      enabled: false
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logger.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logger.Level)
	}
	if cfg.AI.Model != "env/model" {
		t.Errorf("Model = %q, environment should override the file", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 1.2 {
		t.Errorf("Temperature = %v, want 1.2", cfg.AI.Temperature)
	}
	if cfg.Telegram.PacingInterval != time.Second {
		t.Errorf("PacingInterval = %v, want 1s", cfg.Telegram.PacingInterval)
	}
	if cfg.Conversation.Backend != BackendSQLite || cfg.Conversation.SQLitePath != "relay.db" {
		t.Errorf("unexpected conversation config: %+v", cfg.Conversation)
	}
	if cfg.Scheduler.Tasks[TaskStoreMaintenance].Enabled {
		t.Errorf("store_maintenance should be disabled by the file")
	}
	if !cfg.Scheduler.Tasks[TaskConversationExpiry].Enabled {
		t.Errorf("conversation_expiry should keep its default")
	}
}

func TestLoadPrefixedTokenWins(t *testing.T) {
	requiredEnv(t)
	t.Setenv("RELAYBOT_TELEGRAM_TOKEN", "prefixed")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "prefixed" {
		t.Errorf("Token = %q, want prefixed", cfg.Telegram.Token)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	requiredEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load() with missing files error = %v", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown provider", yaml: "ai:\n  provider: bard\n"},
		{name: "temperature too high", yaml: "ai:\n  temperature: 3\n"},
		{name: "chunk size above telegram limit", yaml: "telegram:\n  max_message_length: 5000\n"},
		{name: "unknown backend", yaml: "conversation:\n  backend: redis\n"},
		{name: "bad log level", yaml: "logger:\n  level: verbose\n"},
		{name: "enabled task without schedule", yaml: "scheduler:\n  tasks:\n    conversation_expiry:\n      schedule: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requiredEnv(t)
			path := writeFile(t, "config.yaml", tt.yaml)

			_, err := Load(path, "")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if code := apperrors.Code(err); code != apperrors.CodeConfig {
				t.Errorf("Code() = %q, want %q", code, apperrors.CodeConfig)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	// Register cleanup for variables the env file will export.
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	t.Setenv("OPENROUTER_API_KEY", "from-environment")

	envPath := writeFile(t, ".env", "TELEGRAM_BOT_TOKEN=from-dotenv\nOPENROUTER_API_KEY=from-dotenv\n")

	cfg, err := Load("", envPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "from-dotenv" {
		t.Errorf("Telegram token = %q, want from-dotenv", cfg.Telegram.Token)
	}
	if cfg.AI.Token != "from-environment" {
		t.Errorf("AI token = %q, existing environment must win", cfg.AI.Token)
	}
}

func TestWatchReloadsConfig(t *testing.T) {
	requiredEnv(t)
	path := writeFile(t, "config.yaml", "logger:\n  level: info\n")

	reloaded := make(chan *Config, 4)
	if err := Watch(path, func(cfg *Config) { reloaded <- cfg }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("logger:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Logger.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatchWithoutFile(t *testing.T) {
	requiredEnv(t)

	if err := Watch("", func(*Config) { t.Error("unexpected reload") }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
}
