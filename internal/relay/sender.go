package relay

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the outbound transport boundary. Each method may fail with a
// transport error; the delivery engine treats all causes identically.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendVideo(ctx context.Context, chatID int64, fileID string) error
	SendDocument(ctx context.Context, chatID int64, fileID string) error
}

// botSender adapts a go-telegram bot client to the Sender interface.
type botSender struct {
	bot *tgbot.Bot
}

// NewBotSender wraps a Telegram bot client as a Sender.
func NewBotSender(b *tgbot.Bot) Sender {
	return &botSender{bot: b}
}

func (s *botSender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send text to chat %d: %w", chatID, err)
	}
	return nil
}

func (s *botSender) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	_, err := s.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileString{Data: fileID},
		Caption: caption,
	})
	if err != nil {
		return fmt.Errorf("failed to send photo to chat %d: %w", chatID, err)
	}
	return nil
}

func (s *botSender) SendVideo(ctx context.Context, chatID int64, fileID string) error {
	_, err := s.bot.SendVideo(ctx, &tgbot.SendVideoParams{
		ChatID: chatID,
		Video:  &models.InputFileString{Data: fileID},
	})
	if err != nil {
		return fmt.Errorf("failed to send video to chat %d: %w", chatID, err)
	}
	return nil
}

func (s *botSender) SendDocument(ctx context.Context, chatID int64, fileID string) error {
	_, err := s.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileString{Data: fileID},
	})
	if err != nil {
		return fmt.Errorf("failed to send document to chat %d: %w", chatID, err)
	}
	return nil
}
