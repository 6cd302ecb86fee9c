package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/statsbot/internal/render"
	"github.com/edgard/statsbot/internal/stats"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	h := helpHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Handle(ctx, b, update)
	}
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, s Sender, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /help command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)

	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          update.Message.Chat.ID,
		Text:            render.CodeBlock(HelpText(h.deps.Config.Messages.HelpHeader)),
		ParseMode:       models.ParseModeMarkdown,
		ReplyParameters: &models.ReplyParameters{MessageID: update.Message.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}

// HelpText lists every statistic with its one line summary below header.
func HelpText(header string) string {
	all := stats.Statistics()
	rows := make([][]string, len(all))
	for i, st := range all {
		rows[i] = []string{st.Name, st.Summary()}
	}

	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	b.WriteString(render.Table([]render.Column{{Header: "Statistic"}, {Header: "Description"}}, rows))
	return b.String()
}
