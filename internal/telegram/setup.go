// Package telegram creates the Telegram client and registers the handlers.
package telegram

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/edgard/statsbot/internal/bot/handlers"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created successfully", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// applyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Registrar is the handler registration part of *bot.Bot.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
}

// RegisterHandlers registers the command handlers with their middleware.
func RegisterHandlers(b Registrar, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registeredHandlers) == 0 {
		log.Warn("No handlers provided for registration.")
		return nil
	}

	for command, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", command)
			continue
		}

		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType,
			applyMiddleware(regHandler.Handler, regHandler.Middleware))
		log.Debug("Registered handler", "command", command, "middleware_count", len(regHandler.Middleware))
	}

	log.Info("Registered Telegram handlers successfully", "count", len(registeredHandlers))
	return nil
}
