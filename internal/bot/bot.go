// Package bot wires the Telegram listener and the task scheduler together and
// manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Listener receives Telegram updates until ctx is done. *tgbot.Bot implements it.
type Listener interface {
	Start(ctx context.Context)
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler *Scheduler
}

// NewBot creates a Bot from its running parts.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
	}
}

// Run starts the listener and the scheduler and blocks until ctx is cancelled
// or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
