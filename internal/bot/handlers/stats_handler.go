package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/edgard/statsbot/internal/render"
	"github.com/edgard/statsbot/internal/stats"
)

// NewStatsHandler returns a handler for the statistics commands.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	h := statsHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.Handle(ctx, b, update)
	}
}

type statsHandler struct {
	deps HandlerDeps
}

// Handle runs the requested statistic and replies with its text and chart.
func (h statsHandler) Handle(ctx context.Context, s Sender, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	args := commandArgs(msg.Text)
	log := h.deps.Logger.With(
		"handler", "stats",
		"request_id", uuid.NewString(),
		"chat_id", msg.Chat.ID,
		"user_id", msg.From.ID,
	)

	tokens, err := stats.Split(args)
	if err != nil {
		usage, _ := stats.AsUsage(err)
		h.sendHelp(ctx, s, msg, render.CodeBlock(usage), log)
		return
	}

	startTime := time.Now()
	stopAction := startChatAction(ctx, s, msg.Chat.ID, models.ChatActionTyping, log)
	res, err := h.deps.Runner.Execute(ctx, tokens, Caller(msg.From))
	stopAction()
	if err != nil {
		log.ErrorContext(ctx, "Statistic failed", "args", args, "error", err, "duration", time.Since(startTime))
		h.reply(ctx, s, msg, h.deps.Config.Messages.GeneralError, "", log)
		return
	}
	log.InfoContext(ctx, "Statistic served", "args", args, "kind", res.Kind, "duration", time.Since(startTime))

	if res.Kind == stats.KindUsage {
		h.sendHelp(ctx, s, msg, res.Text, log)
		return
	}

	if res.HasText() {
		mode := models.ParseModeMarkdown
		if res.Format == stats.FormatPlain {
			mode = ""
		}
		h.reply(ctx, s, msg, res.Text, mode, log)
	}

	if res.HasImage() {
		_, err := s.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:          msg.Chat.ID,
			Photo:           &models.InputFileUpload{Filename: "stats.png", Data: bytes.NewReader(res.Image)},
			Caption:         render.InlineCode(args),
			ParseMode:       models.ParseModeMarkdown,
			ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send chart", "error", err)
		}
	}
}

// sendHelp delivers usage text privately, replying in the chat instead when
// the user never started a private conversation with the bot.
func (h statsHandler) sendHelp(ctx context.Context, s Sender, msg *models.Message, text string, log *slog.Logger) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    msg.From.ID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err == nil {
		return
	}
	if !errors.Is(err, bot.ErrorForbidden) {
		log.ErrorContext(ctx, "Failed to send help privately", "error", err)
		return
	}
	log.DebugContext(ctx, "Private help refused, replying in chat")
	h.reply(ctx, s, msg, text, models.ParseModeMarkdown, log)
}

func (h statsHandler) reply(ctx context.Context, s Sender, msg *models.Message, text string, mode models.ParseMode, log *slog.Logger) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          msg.Chat.ID,
		Text:            text,
		ParseMode:       mode,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

// Caller is the identity of a command sender, named the way the identity
// refresh stores it.
func Caller(u *models.User) stats.Identity {
	return stats.NewIdentity(u.ID, u.Username, u.FirstName, u.LastName)
}

// commandArgs drops the leading /command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}
