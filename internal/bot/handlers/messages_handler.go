package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewMessagesHandler returns a handler for the /messages command. Each
// unread message is sent individually with its reply/delete keyboard so
// the admin can act on any of them.
func NewMessagesHandler(deps HandlerDeps) bot.HandlerFunc {
	return messagesHandler{deps}.Handle
}

type messagesHandler struct {
	deps HandlerDeps
}

func (h messagesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "messages")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Messages handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /messages command", "chat_id", chatID)

	unread, err := h.deps.Store.UnreadMessages(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch unread messages", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(unread) == 0 {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.NoMessages)
		return
	}

	for _, msg := range unread {
		username := msg.Username
		if username == "" {
			username = "no username"
		}

		text := fmt.Sprintf("📬 Message from user:\n\n👤 @%s (%s):\n%s",
			username, msg.CreatedAt.Format(statsTimeLayout), msg.Content)

		keyboard := &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: "✍️ Reply", CallbackData: relay.ReplyCallback(msg.ID)}},
				{{Text: "🗑 Delete", CallbackData: relay.DeleteCallback(msg.ID)}},
			},
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ReplyMarkup: keyboard,
		}); err != nil {
			log.ErrorContext(ctx, "Failed to send unread message listing",
				"error", err, "message_id", msg.ID)
		}
	}
}
