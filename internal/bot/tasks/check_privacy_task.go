package tasks

import (
	"context"
	"errors"
	"fmt"
)

// ErrPrivacyMode means Telegram only delivers commands to the bot, so the
// chat log misses ordinary messages.
var ErrPrivacyMode = errors.New("bot privacy mode is enabled, group messages cannot be logged")

func newCheckPrivacyTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "check_privacy")

	return func(ctx context.Context) error {
		me, err := deps.Telegram.GetMe(ctx)
		if err != nil {
			return fmt.Errorf("failed to get bot info: %w", err)
		}
		if !me.CanReadAllGroupMessages {
			log.ErrorContext(ctx, "Bot cannot read all group messages, disable privacy mode with @BotFather",
				"bot_username", me.Username)
			return ErrPrivacyMode
		}
		log.DebugContext(ctx, "Bot can read all group messages")
		return nil
	}
}
