// Package handlers contains Telegram bot command, message, and callback
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly creates a middleware that drops messages from anyone but the
// configured admin. Commands are ignored silently for non-admins; only
// button presses get a visible rejection (handled by the callback
// dispatcher, not here).
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			userID := update.Message.From.ID
			if userID != deps.Config.Telegram.AdminUserID {
				deps.Logger.WarnContext(ctx, "Ignoring admin command from non-admin",
					"user_id", userID, "chat_id", update.Message.Chat.ID)
				return
			}

			next(ctx, b, update)
		}
	}
}
