package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultTelegramMaxMessageLength = 4096 // Telegram's maximum message length
	DefaultTelegramPacingInterval   = 500 * time.Millisecond
	DefaultTelegramSendTimeout      = 30 * time.Second
	DefaultTelegramTypingInterval   = 4 * time.Second // Telegram clears the indicator after ~5s

	DefaultAIProvider    = ProviderOpenRouter
	DefaultAIBaseURL     = "https://openrouter.ai/api/v1"
	DefaultAIModel       = "mistralai/mistral-7b-instruct"
	DefaultAIMaxTokens   = 1024
	DefaultAITemperature = 0.7
	DefaultAITimeout     = 2 * time.Minute

	DefaultConversationBackend     = BackendMemory
	DefaultConversationSQLitePath  = ":memory:"
	DefaultConversationMaxMessages = 40
	DefaultConversationIdleTTL     = 24 * time.Hour
)

// Completion providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

// Conversation store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Scheduled task names.
const (
	TaskConversationExpiry = "conversation_expiry"
	TaskStoreMaintenance   = "store_maintenance"
)

// DefaultMessages holds the user-facing texts.
var DefaultMessages = MessagesConfig{
	Welcome: "🚀 Hi! I'm an AI bot. Ask me anything!",
	Help: "📚 <b>Available commands:</b>\n" +
		"/start - Start a new conversation\n" +
		"/help - Show this help\n\n" +
		"Just write a question and I'll answer it with a neural network!",
	TextOnly:     "Please send a text message.",
	RemoteError:  "⚠️ The neural network could not be reached. Please try again later.",
	EmptyReply:   "🤔 I couldn't come up with an answer. Try asking differently.",
	GeneralError: "⚠️ Something went wrong while processing your request. Please try again later.",
}

// DefaultTasks holds the built-in scheduled tasks. Schedules use six-field cron (with seconds).
var DefaultTasks = map[string]TaskConfig{
	TaskConversationExpiry: {Enabled: true, Schedule: "0 */5 * * * *"},
	TaskStoreMaintenance:   {Enabled: true, Schedule: "0 0 4 * * *"},
}
