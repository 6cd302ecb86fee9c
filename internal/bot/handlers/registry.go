package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every command handler keyed by its command.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/help"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "help",
		Handler:     NewHelpHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/chatid"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "chatid",
		Handler:     NewChatIDHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	knownUsers := []tgbot.Middleware{KnownUsersOnly(deps)}
	statsHandler := NewStatsHandler(deps)
	for _, cmd := range deps.Config.Telegram.StatsCommands {
		handlers["/"+cmd] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     cmd,
			Handler:     statsHandler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Middleware:  knownUsers,
		}
	}

	return handlers
}
