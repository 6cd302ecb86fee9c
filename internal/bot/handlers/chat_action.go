package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// chatActionInterval stays under the five seconds a chat action is shown for.
const chatActionInterval = 4 * time.Second

// startChatAction shows action in chatID until the returned stop func is
// called. stop waits for the last action to be sent.
func startChatAction(ctx context.Context, s Sender, chatID int64, action models.ChatAction, log *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sendChatAction(ctx, s, chatID, action, chatActionInterval, log)
	}()
	return func() {
		cancel()
		<-done
	}
}

func sendChatAction(ctx context.Context, s Sender, chatID int64, action models.ChatAction, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	send := func() error {
		_, err := s.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: action})
		return err
	}

	if err := send(); err != nil {
		log.DebugContext(ctx, "Failed to send initial chat action", "error", err, "chat_id", chatID)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := send(); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.DebugContext(ctx, "Chat action failed", "error", err, "chat_id", chatID)
			}
		}
	}
}
