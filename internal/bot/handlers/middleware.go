// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/statsbot/internal/backup"
	"github.com/edgard/statsbot/internal/ingest"
)

// KnownUsersOnly drops commands from senders missing from the identity
// snapshot. Nothing is sent back.
func KnownUsersOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if _, ok := deps.Runner.Users()[update.Message.From.ID]; !ok {
				deps.Logger.DebugContext(ctx, "Ignoring command from unknown user",
					"middleware", "KnownUsersOnly",
					"user_id", update.Message.From.ID,
					"chat_id", update.Message.Chat.ID)
				return
			}
			next(ctx, bot, update)
		}
	}
}

// Recorder stores every message of the monitored chat before the update is
// dispatched. Edits rewrite the stored row.
func Recorder(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			record(ctx, deps, update)
			next(ctx, bot, update)
		}
	}
}

func record(ctx context.Context, deps HandlerDeps, update *models.Update) {
	log := deps.Logger.With("middleware", "Recorder", "update_id", update.ID)
	chatID := deps.Config.Telegram.ChatID
	if chatID == 0 {
		return
	}

	if edited := update.EditedMessage; edited != nil {
		if edited.Chat.ID != chatID {
			return
		}
		row, _ := ingest.Parse(edited)
		appendBackup(ctx, deps, backup.StreamEditedMessages, row)
		if err := deps.Store.UpdateMessage(ctx, row); err != nil {
			log.ErrorContext(ctx, "Failed to store edited message", "message_id", edited.ID, "error", err)
		}
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat.ID != chatID {
		return
	}

	row, events := ingest.Parse(msg)
	appendBackup(ctx, deps, backup.StreamMessages, row)
	if err := deps.Store.SaveMessage(ctx, row); err != nil {
		log.ErrorContext(ctx, "Failed to store message", "message_id", msg.ID, "error", err)
	}

	for i := range events {
		appendBackup(ctx, deps, backup.StreamUserEvents, &events[i])
	}
	if err := deps.Store.SaveUserEvents(ctx, events); err != nil {
		log.ErrorContext(ctx, "Failed to store user events", "message_id", msg.ID, "error", err)
	}
}

func appendBackup(ctx context.Context, deps HandlerDeps, stream string, v any) {
	if deps.Backup == nil {
		return
	}
	if err := deps.Backup.Append(stream, v); err != nil {
		deps.Logger.WarnContext(ctx, "Failed to append backup record", "stream", stream, "error", err)
	}
}
