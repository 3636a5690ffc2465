package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/relaybot/internal/relay"
)

// NewRelayHandler returns the default handler for free-form messages:
// admin messages consume a pending conversation state, non-admin messages
// are stored as inbound mail and acknowledged.
func NewRelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return relayHandler{deps}.Handle
}

type relayHandler struct {
	deps HandlerDeps
}

func (h relayHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "relay")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	payload, ok := relay.PayloadFromMessage(msg)
	if !ok {
		log.DebugContext(ctx, "Ignoring message without relayable content",
			"chat_id", msg.Chat.ID, "message_id", msg.ID)
		return
	}

	if h.deps.Router.IsAdmin(msg.From.ID) {
		h.handleAdmin(ctx, b, log, msg.Chat.ID, payload)
		return
	}

	from := relay.UserInfo{
		UserID:    msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}

	if _, err := h.deps.Router.AcceptUserMessage(ctx, from, payload); err != nil {
		log.ErrorContext(ctx, "Failed to store inbound message",
			"error", err, "user_id", from.UserID)
		sendText(ctx, b, log, msg.Chat.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, msg.Chat.ID, h.deps.Config.Messages.MessageReceived)
}

func (h relayHandler) handleAdmin(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, payload relay.Payload) {
	msgs := h.deps.Config.Messages

	// The broadcast fan-out can take a while; let the admin know it is
	// underway before the summary arrives.
	if h.deps.Router.PendingState() == relay.StateAwaitingBroadcast {
		sendText(ctx, b, log, chatID, msgs.BroadcastStarted)
	}

	res, err := h.deps.Router.ConsumeAdminState(ctx, payload)

	switch {
	case errors.Is(err, relay.ErrMalformedState):
		sendText(ctx, b, log, chatID, msgs.GeneralError)
		return

	case errors.Is(err, relay.ErrNotFound):
		sendText(ctx, b, log, chatID, msgs.UserNotFound)
		return

	case err != nil:
		log.ErrorContext(ctx, "Failed to consume admin state", "error", err)
		sendText(ctx, b, log, chatID, msgs.GeneralError)
		return
	}

	if res == nil {
		// Admin is idle and the message matched no command; nothing to do.
		log.DebugContext(ctx, "Ignoring free-form admin message with no pending flow", "chat_id", chatID)
		return
	}

	switch {
	case res.Broadcast != nil:
		summary := fmt.Sprintf(msgs.BroadcastSummary,
			res.Broadcast.Total, res.Broadcast.Sent, res.Broadcast.Failed)
		sendText(ctx, b, log, chatID, summary)

	case res.Reply != nil:
		if res.Reply.Delivered {
			sendText(ctx, b, log, chatID, msgs.ReplySent)
		} else {
			sendText(ctx, b, log, chatID, msgs.ReplyFailed)
		}
	}
}
