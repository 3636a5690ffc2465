package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

const (
	statsTimeLayout     = "2006-01-02 15:04:05"
	statsContentPreview = 50
)

// NewStatsHandler returns a handler for the /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stats command", "chat_id", chatID)

	broadcasts, err := h.deps.Store.ListBroadcasts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list broadcasts", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(broadcasts) == 0 {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.NoStats)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Broadcast statistics:\n\n")
	for _, bc := range broadcasts {
		fmt.Fprintf(&sb, "ID: %d\n", bc.ID)
		fmt.Fprintf(&sb, "Message: %s\n", previewContent(bc.Content))
		fmt.Fprintf(&sb, "Delivered: %d\n", bc.SentCount)
		fmt.Fprintf(&sb, "Failed: %d\n", bc.FailedCount)
		fmt.Fprintf(&sb, "Created: %s\n", bc.CreatedAt.Format(statsTimeLayout))
		if bc.CompletedAt.Valid {
			fmt.Fprintf(&sb, "Completed: %s\n", bc.CompletedAt.Time.Format(statsTimeLayout))
		}
		sb.WriteString("\n")
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🗑 Clear statistics", CallbackData: relay.ClearStatsCallback()}},
		},
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: keyboard,
	}); err != nil {
		log.ErrorContext(ctx, "Failed to send stats message", "error", err, "chat_id", chatID)
	}
}

// previewContent truncates broadcast content for display, the way the
// stats listing presents long messages.
func previewContent(content string) string {
	if len(content) <= statsContentPreview {
		return content
	}
	return content[:statsContentPreview] + "..."
}
