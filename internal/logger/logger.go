// Package logger builds the slog logger and the update logging middleware.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a slog Logger writing to stdout with the given level.
// Unknown levels fall back to info.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	return New(os.Stdout, levelStr, jsonOutput)
}

// New creates a slog Logger writing to w.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware logs every update with its duration.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()
			logEntry := log.With(UpdateAttrs(update)...)

			logEntry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// UpdateAttrs describes an update for logging.
func UpdateAttrs(update *models.Update) []any {
	attrs := []any{"update_id", update.ID}

	msg, kind := update.Message, "message"
	if msg == nil && update.EditedMessage != nil {
		msg, kind = update.EditedMessage, "edited_message"
	}
	if msg == nil {
		return append(attrs, "update_type", "other")
	}

	attrs = append(attrs,
		"update_type", kind,
		"message_id", msg.ID,
		"chat_id", msg.Chat.ID,
	)
	if msg.From != nil {
		attrs = append(attrs, "user_id", msg.From.ID)
	}
	if msg.Text != "" {
		attrs = append(attrs, "text_preview", truncateString(msg.Text, 50))
	}
	return attrs
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
