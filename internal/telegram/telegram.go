// Package telegram wires the go-telegram bot client: construction,
// handler registration, and per-scope command menus.
package telegram

import (
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/relaybot/internal/bot/handlers"
)

// New creates a Telegram bot client with the given token and options.
func New(token string, logger *slog.Logger, opts ...tgbot.Option) (*tgbot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot client created")
	return b, nil
}

// RegisterHandlers registers all command and callback handlers with the bot.
func RegisterHandlers(b *tgbot.Bot, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("telegram bot is nil")
	}

	for name, h := range registered {
		if h.Handler == nil {
			return fmt.Errorf("handler %q has no handler function", name)
		}
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, h.Handler, h.Middleware...)
		logger.Debug("Registered handler", "name", name, "pattern", h.Pattern)
	}

	logger.Info("Telegram handlers registered", "count", len(registered))
	return nil
}
