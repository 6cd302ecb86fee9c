package handlers

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

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Runner *stats.Runner
	// Backup is optional; nil disables the JSON lines copy.
	Backup *backup.Appender
}

// Sender is the part of the Telegram client the handlers reply through.
// *bot.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}
