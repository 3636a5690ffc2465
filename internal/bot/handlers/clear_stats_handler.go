package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewClearStatsHandler returns a handler for the /clear_stats command.
// Clearing is idempotent: running it with no records is still a success.
func NewClearStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return clearStatsHandler{deps}.Handle
}

type clearStatsHandler struct {
	deps HandlerDeps
}

func (h clearStatsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "clear_stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Clear stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /clear_stats command", "chat_id", chatID)

	if err := h.deps.Store.DeleteAllBroadcasts(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to clear broadcast stats", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.StatsCleared)
}
