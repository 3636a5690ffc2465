package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var userCommands = []models.BotCommand{
	{Command: "start", Description: "Start using the bot"},
	{Command: "help", Description: "Show help"},
}

var adminCommands = []models.BotCommand{
	{Command: "start", Description: "Start using the bot"},
	{Command: "help", Description: "Show help"},
	{Command: "broadcast", Description: "Start a broadcast"},
	{Command: "stats", Description: "Broadcast statistics"},
	{Command: "messages", Description: "Messages from users"},
	{Command: "clear_stats", Description: "Clear statistics"},
}

// SetupCommands publishes the command menus: the base set for everyone
// and the full set in the admin's private chat scope.
func SetupCommands(ctx context.Context, b *tgbot.Bot, logger *slog.Logger, adminUserID int64) error {
	if _, err := b.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands: userCommands,
	}); err != nil {
		return fmt.Errorf("failed to set default commands: %w", err)
	}

	if _, err := b.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{
		Commands: adminCommands,
		Scope:    &models.BotCommandScopeChat{ChatID: adminUserID},
	}); err != nil {
		return fmt.Errorf("failed to set admin commands: %w", err)
	}

	logger.Info("Command menus published", "admin_id", adminUserID)
	return nil
}
