// Package main contains the entrypoint for the relay bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/relaybot/internal/bot"
	"github.com/edgard/relaybot/internal/bot/handlers"
	"github.com/edgard/relaybot/internal/bot/tasks"
	"github.com/edgard/relaybot/internal/completion"
	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/conversation"
	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/logger"
	"github.com/edgard/relaybot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, store, completion client, bot, scheduler),
// handles graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	if err := config.Watch(*configPath, applyLogLevel(log)); err != nil {
		log.Warn("Configuration hot reload disabled", "error", err)
	}

	store, closeStore, err := newStore(cfg.Conversation, log)
	if err != nil {
		log.Error("Failed to initialize conversation store", "backend", cfg.Conversation.Backend, "error", err)
		return 1
	}
	defer closeStore()

	client, err := completion.New(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "provider", cfg.AI.Provider, "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Completion: client,
		Locks:      conversation.NewKeyedMutex(),
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Recover(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewDefaultHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	if cfg.Telegram.DropPendingUpdates {
		if err := telegram.DropPendingUpdates(ctx, tg, log); err != nil {
			log.Warn("Failed to drop pending updates", "error", err)
		}
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.SetCommands(ctx, tg, log, cmdHandlers); err != nil {
		log.Warn("Failed to publish command menu", "error", err)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// applyLogLevel returns the config reload callback. Only logger.level is applied
// at runtime; every other setting is read once at startup and needs a restart.
func applyLogLevel(log *slog.Logger) func(*config.Config) {
	return func(updated *config.Config) {
		logger.SetLevel(updated.Logger.Level)
		log.Info("Applied log level from reloaded configuration; other changes take effect on restart",
			"level", updated.Logger.Level)
	}
}

// newStore builds the configured conversation store and its cleanup function.
func newStore(cfg config.ConversationConfig, log *slog.Logger) (conversation.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return conversation.NewMemoryStore(cfg.MaxMessages, log), func() {}, nil
	case config.BackendSQLite:
		db, err := database.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Opened conversation database", "path", cfg.SQLitePath)
		return database.NewStore(db, cfg.MaxMessages, log), func() { database.CloseDB(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown conversation backend %q", cfg.Backend)
	}
}
