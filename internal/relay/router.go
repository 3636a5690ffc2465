package relay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/relaybot/internal/database"
)

// Router is the top-level relay dispatcher. Given an inbound event and
// the current conversation state it persists inbound mail, consumes
// pending admin flows, and executes button actions. Transport concerns
// (formatting, sending notices) stay with the callers.
type Router struct {
	store      database.Store
	deliverer  Deliverer
	broadcasts Broadcaster
	states     *StateStore
	adminID    int64
	logger     *slog.Logger
}

// NewRouter creates a relay router for a single admin identity.
func NewRouter(
	store database.Store,
	deliverer Deliverer,
	broadcasts Broadcaster,
	states *StateStore,
	adminID int64,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Router{
		store:      store,
		deliverer:  deliverer,
		broadcasts: broadcasts,
		states:     states,
		adminID:    adminID,
		logger:     logger.With("component", "router"),
	}
}

// IsAdmin reports whether userID is the configured administrator.
func (r *Router) IsAdmin(userID int64) bool {
	return userID == r.adminID
}

// PendingState returns the admin's current conversation state kind.
func (r *Router) PendingState() StateKind {
	return r.states.Get(r.adminID).Kind
}

// StartBroadcastFlow marks the next admin message as broadcast content.
func (r *Router) StartBroadcastFlow() {
	r.states.Set(r.adminID, State{Kind: StateAwaitingBroadcast})
}

// UserInfo identifies the sender of an inbound user message.
type UserInfo struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// AcceptUserMessage persists a non-admin message: the sender is upserted
// so every stored message references an existing user, then the message is
// recorded unread. Returns the stored message ID.
func (r *Router) AcceptUserMessage(ctx context.Context, from UserInfo, p Payload) (int64, error) {
	user := &database.User{
		UserID:    from.UserID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := r.store.UpsertUser(ctx, user); err != nil {
		return 0, fmt.Errorf("failed to register sender: %w", err)
	}

	msg := &database.InboundMessage{
		UserID:  from.UserID,
		Content: p.DisplayText(),
	}
	if err := r.store.SaveInboundMessage(ctx, msg); err != nil {
		return 0, fmt.Errorf("failed to persist inbound message: %w", err)
	}

	r.logger.InfoContext(ctx, "Inbound message stored",
		"message_id", msg.ID, "user_id", from.UserID)
	return msg.ID, nil
}

// ReplyOutcome describes a consumed reply flow. Delivered reports whether
// the payload reached the target; the source message is marked read only
// on delivery.
type ReplyOutcome struct {
	TargetUserID    int64
	SourceMessageID int64
	Delivered       bool
}

// ConsumeResult describes how an admin message consumed a pending state.
// Exactly one of Broadcast and Reply is set.
type ConsumeResult struct {
	Broadcast *Result
	Reply     *ReplyOutcome
}

// ConsumeAdminState interprets an admin message against the pending
// conversation state. It returns nil, nil when the admin is idle (the
// message is not consumed). Whatever the outcome, a pending state always
// returns to idle: only the underlying delivery retries, never the state
// transition itself.
func (r *Router) ConsumeAdminState(ctx context.Context, p Payload) (*ConsumeResult, error) {
	st := r.states.Get(r.adminID)
	if st.Kind == StateIdle {
		return nil, nil
	}

	defer r.states.Clear(r.adminID)

	if !st.Valid() {
		r.logger.ErrorContext(ctx, "Conversation state is malformed, resetting to idle",
			"admin_id", r.adminID, "kind", int(st.Kind),
			"target_user_id", st.TargetUserID, "source_message_id", st.SourceMessageID)
		return nil, ErrMalformedState
	}

	switch st.Kind {
	case StateAwaitingBroadcast:
		res, err := r.broadcasts.Run(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("broadcast run failed: %w", err)
		}
		return &ConsumeResult{Broadcast: &res}, nil

	case StateAwaitingReply:
		return r.consumeReply(ctx, st, p)
	}

	return nil, ErrMalformedState
}

func (r *Router) consumeReply(ctx context.Context, st State, p Payload) (*ConsumeResult, error) {
	user, err := r.store.GetUser(ctx, st.TargetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reply target: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: reply target user %d", ErrNotFound, st.TargetUserID)
	}

	outcome := &ReplyOutcome{
		TargetUserID:    st.TargetUserID,
		SourceMessageID: st.SourceMessageID,
	}

	if err := r.deliverer.Deliver(ctx, user.UserID, p); err != nil {
		// Delivery failure does not abort the flow; the state still
		// returns to idle and the source message stays unread.
		r.logger.WarnContext(ctx, "Reply delivery failed",
			"user_id", user.UserID, "source_message_id", st.SourceMessageID, "error", err)
		return &ConsumeResult{Reply: outcome}, nil
	}

	outcome.Delivered = true
	if err := r.store.MarkMessageRead(ctx, st.SourceMessageID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark source message as read",
			"message_id", st.SourceMessageID, "error", err)
	}

	return &ConsumeResult{Reply: outcome}, nil
}

// CallbackResult describes an executed button action.
type CallbackResult struct {
	Action         CallbackAction
	MessageID      int64
	TargetUsername string
}

// HandleCallback executes an inline button press. Non-admin senders are
// rejected with ErrUnauthorized before any parsing or state change.
func (r *Router) HandleCallback(ctx context.Context, fromID int64, data string) (*CallbackResult, error) {
	if fromID != r.adminID {
		r.logger.WarnContext(ctx, "Unauthorized callback attempt",
			"user_id", fromID, "data", data)
		return nil, ErrUnauthorized
	}

	action, messageID, err := ParseCallback(data)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionReply:
		return r.startReplyFlow(ctx, messageID)

	case ActionDelete:
		if err := r.store.DeleteInboundMessage(ctx, messageID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
			}
			return nil, fmt.Errorf("failed to delete message %d: %w", messageID, err)
		}
		return &CallbackResult{Action: ActionDelete, MessageID: messageID}, nil

	case ActionClearStats:
		if err := r.store.DeleteAllBroadcasts(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear broadcast stats: %w", err)
		}
		return &CallbackResult{Action: ActionClearStats}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
}

// startReplyFlow validates the target message and its owner, then marks
// the next admin message as the reply to deliver.
func (r *Router) startReplyFlow(ctx context.Context, messageID int64) (*CallbackResult, error) {
	msg, err := r.store.GetInboundMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up message %d: %w", messageID, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
	}

	user, err := r.store.GetUser(ctx, msg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up message owner: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, msg.UserID)
	}

	r.states.Set(r.adminID, State{
		Kind:            StateAwaitingReply,
		TargetUserID:    user.UserID,
		SourceMessageID: msg.ID,
	})

	username := user.Username
	if username == "" {
		username = user.FirstName
	}

	return &CallbackResult{
		Action:         ActionReply,
		MessageID:      messageID,
		TargetUsername: username,
	}, nil
}
