// Package config loads, validates, and watches the bot configuration.
// Values come from defaults, an optional YAML file, an optional .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/relaybot/internal/errors"
)

// EnvPrefix is prepended to every configuration key looked up in the environment,
// e.g. RELAYBOT_AI_MODEL for ai.model.
const EnvPrefix = "RELAYBOT"

// Config is the root configuration structure.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	AI           AIConfig           `mapstructure:"ai"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Messages     MessagesConfig     `mapstructure:"messages"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram runtime and delivery settings.
type TelegramConfig struct {
	Token              string        `mapstructure:"token"                validate:"required"`
	MaxMessageLength   int           `mapstructure:"max_message_length"   validate:"min=1,max=4096"`
	PacingInterval     time.Duration `mapstructure:"pacing_interval"      validate:"min=0"`
	SendTimeout        time.Duration `mapstructure:"send_timeout"         validate:"min=1s"`
	TypingInterval     time.Duration `mapstructure:"typing_interval"      validate:"min=1s"`
	DropPendingUpdates bool          `mapstructure:"drop_pending_updates"`
}

// AIConfig holds completion provider settings.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"required,oneof=openrouter openai gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1"`
	Temperature float64       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// ConversationConfig selects and tunes the conversation store.
type ConversationConfig struct {
	Backend     string        `mapstructure:"backend"      validate:"required,oneof=memory sqlite"`
	SQLitePath  string        `mapstructure:"sqlite_path"  validate:"required_if=Backend sqlite"`
	MaxMessages int           `mapstructure:"max_messages" validate:"min=0"`
	IdleTTL     time.Duration `mapstructure:"idle_ttl"     validate:"min=0"`
}

// MessagesConfig holds the texts sent to users.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"       validate:"required"`
	Help         string `mapstructure:"help"          validate:"required"`
	TextOnly     string `mapstructure:"text_only"     validate:"required"`
	RemoteError  string `mapstructure:"remote_error"  validate:"required"`
	EmptyReply   string `mapstructure:"empty_reply"   validate:"required"`
	GeneralError string `mapstructure:"general_error" validate:"required"`
}

// SchedulerConfig holds the scheduled task settings keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// Load reads the configuration. configPath and envPath may be empty or point at
// missing files, in which case only defaults and the environment apply.
func Load(configPath, envPath string) (*Config, error) {
	if err := loadDotEnv(envPath); err != nil {
		return nil, apperrors.NewConfigError("failed to load env file", err)
	}

	v, _, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	return decode(v)
}

// Watch re-reads configPath whenever it changes and passes every valid result to
// onChange. Invalid edits are logged and ignored. It is a no-op without a config file.
// Which fields take effect at runtime is up to onChange.
func Watch(configPath string, onChange func(*Config)) error {
	v, found, err := newViper(configPath)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			slog.Error("Ignoring invalid configuration change", "file", e.Name, "error", err)
			return
		}
		slog.Info("Configuration file changed", "file", e.Name, "op", e.Op.String())
		onChange(cfg)
	})
	v.WatchConfig()

	return nil
}

// newViper builds a viper instance and reports whether a config file was read.
func newViper(configPath string) (*viper.Viper, bool, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Tokens are also read from their conventional names. The prefixed names win.
	_ = v.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("ai.token", "OPENROUTER_API_KEY")

	if configPath == "" {
		return v, false, nil
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Info("Configuration file not found, using defaults and environment", "path", configPath)
			return v, false, nil
		}
		return nil, false, apperrors.NewConfigError("failed to read config file "+configPath, err)
	}

	slog.Debug("Configuration file loaded", "path", v.ConfigFileUsed())
	return v, true, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to parse configuration", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, apperrors.NewConfigError("configuration validation failed", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables from a .env file. Variables that are already
// set in the environment keep their value.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Env file not found, skipping", "path", path)
		return nil
	}

	d := viper.New()
	d.SetConfigFile(path)
	d.SetConfigType("env")
	if err := d.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, key := range d.AllKeys() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, d.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}

	slog.Debug("Env file loaded", "path", path, "keys", len(d.AllKeys()))
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.max_message_length", DefaultTelegramMaxMessageLength)
	v.SetDefault("telegram.pacing_interval", DefaultTelegramPacingInterval)
	v.SetDefault("telegram.send_timeout", DefaultTelegramSendTimeout)
	v.SetDefault("telegram.typing_interval", DefaultTelegramTypingInterval)
	v.SetDefault("telegram.drop_pending_updates", false)

	v.SetDefault("ai.provider", DefaultAIProvider)
	v.SetDefault("ai.token", "")
	v.SetDefault("ai.base_url", DefaultAIBaseURL)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.max_tokens", DefaultAIMaxTokens)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.timeout", DefaultAITimeout)

	v.SetDefault("conversation.backend", DefaultConversationBackend)
	v.SetDefault("conversation.sqlite_path", DefaultConversationSQLitePath)
	v.SetDefault("conversation.max_messages", DefaultConversationMaxMessages)
	v.SetDefault("conversation.idle_ttl", DefaultConversationIdleTTL)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.text_only", DefaultMessages.TextOnly)
	v.SetDefault("messages.remote_error", DefaultMessages.RemoteError)
	v.SetDefault("messages.empty_reply", DefaultMessages.EmptyReply)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
