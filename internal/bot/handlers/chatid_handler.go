package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewChatIDHandler returns a handler for the /chatid command.
func NewChatIDHandler(deps HandlerDeps) bot.HandlerFunc {
	h := chatIDHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Handle(ctx, b, update)
	}
}

// chatIDHandler tells where the bot is running, for the telegram.chat_id setting.
type chatIDHandler struct {
	deps HandlerDeps
}

func (h chatIDHandler) Handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "chatid")

	if update.Message == nil {
		log.WarnContext(ctx, "Chat id handler received update without message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            fmt.Sprintf("Chat id: %d", chatID),
		ReplyParameters: &models.ReplyParameters{MessageID: update.Message.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send chat id", "error", err, "chat_id", chatID)
	}
}
