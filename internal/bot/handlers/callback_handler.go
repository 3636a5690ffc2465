package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewCallbackHandler returns the dispatcher for inline button presses.
// Authorization, payload parsing, and the mutation itself happen in the
// router; this handler translates outcomes into chat feedback.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil {
		log.WarnContext(ctx, "Callback handler received update without callback query", "update_id", update.ID)
		return
	}

	res, err := h.deps.Router.HandleCallback(ctx, cq.From.ID, cq.Data)

	if errors.Is(err, relay.ErrUnauthorized) {
		h.answer(ctx, b, cq.ID, h.deps.Config.Messages.NotAuthorized)
		return
	}

	// Ack the press so the client stops its spinner; feedback follows as
	// an edit of the originating message.
	h.answer(ctx, b, cq.ID, "")

	switch {
	case errors.Is(err, relay.ErrNotFound):
		h.edit(ctx, b, cq, h.deps.Config.Messages.NotFound)
		return

	case errors.Is(err, relay.ErrMalformedCallback):
		log.ErrorContext(ctx, "Malformed callback data", "data", cq.Data, "error", err)
		h.edit(ctx, b, cq, h.deps.Config.Messages.GeneralError)
		return

	case err != nil:
		log.ErrorContext(ctx, "Callback action failed", "data", cq.Data, "error", err)
		h.edit(ctx, b, cq, h.deps.Config.Messages.GeneralError)
		return
	}

	switch res.Action {
	case relay.ActionReply:
		h.edit(ctx, b, cq, fmt.Sprintf(h.deps.Config.Messages.ReplyPrompt, res.TargetUsername))
	case relay.ActionDelete:
		h.edit(ctx, b, cq, h.deps.Config.Messages.MessageDeleted)
	case relay.ActionClearStats:
		h.edit(ctx, b, cq, h.deps.Config.Messages.StatsCleared)
	}
}

func (h callbackHandler) answer(ctx context.Context, b *bot.Bot, callbackID, text string) {
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to answer callback query",
			"callback_query_id", callbackID, "error", err)
	}
}

// edit replaces the text of the message the button was attached to. If
// the message is no longer accessible the feedback is skipped; the
// callback answer was already delivered.
func (h callbackHandler) edit(ctx context.Context, b *bot.Bot, cq *models.CallbackQuery, text string) {
	msg := cq.Message.Message
	if msg == nil {
		h.deps.Logger.WarnContext(ctx, "Callback message inaccessible, skipping edit",
			"callback_query_id", cq.ID)
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to edit callback message",
			"chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
	}
}
