// Package main contains the entrypoint for the chat statistics bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/statsbot/internal/backup"
	"github.com/edgard/statsbot/internal/bot"
	"github.com/edgard/statsbot/internal/bot/handlers"
	"github.com/edgard/statsbot/internal/bot/tasks"
	"github.com/edgard/statsbot/internal/config"
	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/logger"
	"github.com/edgard/statsbot/internal/stats"
	"github.com/edgard/statsbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path, cfg.Database.MaxOpenConns)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Database is not reachable", "path", cfg.Database.Path, "error", err)
		return 1
	}

	loc, err := time.LoadLocation(cfg.Stats.Timezone)
	if err != nil {
		log.Error("Failed to load timezone", "timezone", cfg.Stats.Timezone, "error", err)
		return 1
	}
	runner, err := stats.NewRunner(ctx, log, db, loc, stats.WithUsersLockTimeout(cfg.Stats.UsersLockTimeout))
	if err != nil {
		log.Error("Failed to initialize statistics runner", "error", err)
		return 1
	}
	log.Info("Statistics runner ready", "timezone", runner.Location().String(), "known_users", len(runner.Users()))

	appender, archiver, err := newBackup(ctx, log, cfg.Backup)
	if err != nil {
		log.Error("Failed to initialize backup", "error", err)
		return 1
	}

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		Runner: runner,
		Backup: appender,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Recorder(hDeps)),
		tgbot.WithDefaultHandler(func(context.Context, *tgbot.Bot, *models.Update) {}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)
	if cfg.Telegram.ChatID == 0 {
		log.Warn("telegram.chat_id is not set, messages will not be logged. Use /chatid in the group to find it.")
	}

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Runner:   runner,
		Config:   cfg,
		Telegram: tg,
		Archiver: archiver,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	log.Info("Starting bot...")
	runErr := bot.NewBot(log, tg, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// newBackup returns the JSON lines appender when a directory is configured,
// and the S3 archiver when a bucket is configured too.
func newBackup(ctx context.Context, log *slog.Logger, cfg config.BackupConfig) (*backup.Appender, *backup.Archiver, error) {
	if cfg.Dir == "" {
		return nil, nil, nil
	}
	appender, err := backup.NewAppender(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.S3.Bucket == "" {
		log.Info("Backup enabled without archive", "dir", cfg.Dir)
		return appender, nil, nil
	}

	opts := backup.S3Options{
		Bucket:       cfg.S3.Bucket,
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		Prefix:       cfg.S3.Prefix,
		UsePathStyle: cfg.S3.UsePathStyle,
	}
	client, err := backup.NewS3Client(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	archiver, err := backup.NewArchiver(log, client, cfg.Dir, opts)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Backup enabled with archive", "dir", cfg.Dir, "bucket", cfg.S3.Bucket)
	return appender, archiver, nil
}
