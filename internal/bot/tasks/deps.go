// Package tasks implements the scheduled jobs of the bot.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/statsbot/internal/backup"
	"github.com/edgard/statsbot/internal/config"
	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/stats"
)

// Telegram is the part of the Bot API the tasks call. *bot.Bot implements it.
type Telegram interface {
	GetMe(ctx context.Context) (*models.User, error)
	GetChatMember(ctx context.Context, params *bot.GetChatMemberParams) (*models.ChatMember, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Runner   *stats.Runner
	Config   *config.Config
	Telegram Telegram
	// Archiver is nil when no bucket is configured.
	Archiver *backup.Archiver
}
