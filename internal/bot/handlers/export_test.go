package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"
)

type updateHandler interface {
	Handle(ctx context.Context, s Sender, update *models.Update)
}

func StatsHandlerFor(deps HandlerDeps) updateHandler { return statsHandler{deps} }
