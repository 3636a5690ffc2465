package relay_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

const testAdminID int64 = 999

type routerFixture struct {
	store      *fakeStore
	deliverer  *fakeDeliverer
	broadcasts *fakeBroadcaster
	states     *relay.StateStore
	router     *relay.Router
}

func newRouterFixture(failFor ...int64) *routerFixture {
	store := newFakeStore()
	deliverer := newFakeDeliverer(failFor...)
	broadcasts := &fakeBroadcaster{}
	states := relay.NewStateStore()
	return &routerFixture{
		store:      store,
		deliverer:  deliverer,
		broadcasts: broadcasts,
		states:     states,
		router:     relay.NewRouter(store, deliverer, broadcasts, states, testAdminID, nil),
	}
}

// storeMessage seeds a user and one unread message, returning the message ID.
func (f *routerFixture) storeMessage(t *testing.T, from relay.UserInfo, text string) int64 {
	t.Helper()

	id, err := f.router.AcceptUserMessage(context.Background(), from, relay.Payload{
		Kind: relay.PayloadText,
		Text: text,
	})
	if err != nil {
		t.Fatalf("AcceptUserMessage() unexpected error: %v", err)
	}
	return id
}

func TestRouterIsAdmin(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	if !f.router.IsAdmin(testAdminID) {
		t.Error("IsAdmin(admin) = false")
	}
	if f.router.IsAdmin(100) {
		t.Error("IsAdmin(user) = true")
	}
}

func TestRouterAcceptUserMessage(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	from := relay.UserInfo{UserID: 100, Username: "alice", FirstName: "Alice"}

	id := f.storeMessage(t, from, "hello admin")

	user, err := f.store.GetUser(context.Background(), 100)
	if err != nil || user == nil {
		t.Fatalf("sender was not registered: user=%v err=%v", user, err)
	}
	if !user.IsActive {
		t.Error("newly registered sender is not active")
	}

	msg, ok := f.store.message(id)
	if !ok {
		t.Fatal("inbound message was not stored")
	}
	if msg.Content != "hello admin" {
		t.Errorf("stored content = %q, want %q", msg.Content, "hello admin")
	}
	if msg.IsRead {
		t.Error("stored message is already marked read")
	}

	// A later message from the same sender refreshes handles without
	// touching the active flag.
	if err := f.store.SetUserActive(context.Background(), 100, false); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}
	f.storeMessage(t, relay.UserInfo{UserID: 100, Username: "alice2"}, "again")

	user, _ = f.store.GetUser(context.Background(), 100)
	if user.Username != "alice2" {
		t.Errorf("username after upsert = %q, want %q", user.Username, "alice2")
	}
	if user.IsActive {
		t.Error("upsert reactivated a deactivated user")
	}
}

func TestRouterAcceptUserMessageStoresMediaPlaceholder(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	id := f.storeMessage(t, relay.UserInfo{UserID: 100}, "")

	// Empty text payload falls back to the media placeholder.
	msg, _ := f.store.message(id)
	if msg.Content != "Media message" {
		t.Errorf("stored content = %q, want media placeholder", msg.Content)
	}
}

func TestRouterConsumeAdminStateIdle(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()

	res, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText,
		Text: "just chatting",
	})
	if err != nil {
		t.Fatalf("ConsumeAdminState() unexpected error: %v", err)
	}
	if res != nil {
		t.Errorf("idle admin message was consumed: %+v", res)
	}
}

func TestRouterBroadcastFlow(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.broadcasts.result = relay.Result{Total: 3, Sent: 2, Failed: 1}

	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Fatalf("initial PendingState() = %v, want StateIdle", got)
	}

	f.router.StartBroadcastFlow()
	if got := f.router.PendingState(); got != relay.StateAwaitingBroadcast {
		t.Fatalf("PendingState() = %v, want StateAwaitingBroadcast", got)
	}

	payload := relay.Payload{Kind: relay.PayloadText, Text: "to everyone"}
	res, err := f.router.ConsumeAdminState(context.Background(), payload)
	if err != nil {
		t.Fatalf("ConsumeAdminState() unexpected error: %v", err)
	}

	if res == nil || res.Broadcast == nil {
		t.Fatalf("ConsumeAdminState() = %+v, want broadcast result", res)
	}
	if *res.Broadcast != f.broadcasts.result {
		t.Errorf("broadcast result = %+v, want %+v", *res.Broadcast, f.broadcasts.result)
	}
	if f.broadcasts.runs != 1 || f.broadcasts.lastSent != payload {
		t.Errorf("broadcaster runs = %d payload = %+v", f.broadcasts.runs, f.broadcasts.lastSent)
	}

	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after consume = %v, want StateIdle", got)
	}
}

func TestRouterBroadcastFlowErrorStillResets(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.broadcasts.err = errors.New("snapshot failed")

	f.router.StartBroadcastFlow()
	_, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText, Text: "to everyone",
	})
	if err == nil {
		t.Fatal("ConsumeAdminState() expected error, got nil")
	}

	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after failed broadcast = %v, want StateIdle", got)
	}
}

func TestRouterReplyFlow(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100, Username: "alice"}, "question")

	cb, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ReplyCallback(msgID))
	if err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}
	if cb.Action != relay.ActionReply || cb.TargetUsername != "alice" {
		t.Errorf("HandleCallback() = %+v, want reply targeting alice", cb)
	}
	if got := f.router.PendingState(); got != relay.StateAwaitingReply {
		t.Fatalf("PendingState() = %v, want StateAwaitingReply", got)
	}

	payload := relay.Payload{Kind: relay.PayloadText, Text: "answer"}
	res, err := f.router.ConsumeAdminState(context.Background(), payload)
	if err != nil {
		t.Fatalf("ConsumeAdminState() unexpected error: %v", err)
	}
	if res == nil || res.Reply == nil {
		t.Fatalf("ConsumeAdminState() = %+v, want reply outcome", res)
	}
	if !res.Reply.Delivered || res.Reply.TargetUserID != 100 || res.Reply.SourceMessageID != msgID {
		t.Errorf("reply outcome = %+v", res.Reply)
	}

	sent := f.deliverer.deliveries()
	if len(sent) != 1 || sent[0].chatID != 100 || sent[0].payload != payload {
		t.Errorf("deliveries = %+v, want the reply to user 100", sent)
	}

	msg, _ := f.store.message(msgID)
	if !msg.IsRead {
		t.Error("source message was not marked read after delivery")
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after reply = %v, want StateIdle", got)
	}
}

func TestRouterReplyFlowDeliveryFailure(t *testing.T) {
	t.Parallel()

	f := newRouterFixture(100)
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100, Username: "alice"}, "question")

	if _, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ReplyCallback(msgID)); err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}

	res, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText, Text: "answer",
	})
	if err != nil {
		t.Fatalf("ConsumeAdminState() unexpected error: %v", err)
	}
	if res == nil || res.Reply == nil || res.Reply.Delivered {
		t.Fatalf("ConsumeAdminState() = %+v, want undelivered reply outcome", res)
	}

	// Failed delivery leaves the source message unread but still resets
	// the conversation state.
	msg, _ := f.store.message(msgID)
	if msg.IsRead {
		t.Error("source message was marked read despite delivery failure")
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after failed reply = %v, want StateIdle", got)
	}
}

func TestRouterReplyFlowTargetVanished(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.states.Set(testAdminID, relay.State{
		Kind:            relay.StateAwaitingReply,
		TargetUserID:    100,
		SourceMessageID: 1,
	})

	_, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText, Text: "answer",
	})
	if !errors.Is(err, relay.ErrNotFound) {
		t.Fatalf("ConsumeAdminState() error = %v, want ErrNotFound", err)
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after missing target = %v, want StateIdle", got)
	}
}

func TestRouterConsumeAdminStateMalformed(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	f.states.Set(testAdminID, relay.State{Kind: relay.StateAwaitingReply})

	_, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText, Text: "answer",
	})
	if !errors.Is(err, relay.ErrMalformedState) {
		t.Fatalf("ConsumeAdminState() error = %v, want ErrMalformedState", err)
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after malformed state = %v, want StateIdle", got)
	}
}

func TestRouterHandleCallbackUnauthorized(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100}, "question")

	_, err := f.router.HandleCallback(context.Background(), 100, relay.DeleteCallback(msgID))
	if !errors.Is(err, relay.ErrUnauthorized) {
		t.Fatalf("HandleCallback() error = %v, want ErrUnauthorized", err)
	}

	// Rejection happens before any parsing or state change.
	if _, ok := f.store.message(msgID); !ok {
		t.Error("unauthorized callback mutated stored messages")
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after unauthorized callback = %v, want StateIdle", got)
	}
}

func TestRouterHandleCallbackMalformed(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()

	_, err := f.router.HandleCallback(context.Background(), testAdminID, "ban_42")
	if !errors.Is(err, relay.ErrMalformedCallback) {
		t.Fatalf("HandleCallback() error = %v, want ErrMalformedCallback", err)
	}
}

func TestRouterHandleCallbackDelete(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100}, "question")

	cb, err := f.router.HandleCallback(context.Background(), testAdminID, relay.DeleteCallback(msgID))
	if err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}
	if cb.Action != relay.ActionDelete || cb.MessageID != msgID {
		t.Errorf("HandleCallback() = %+v", cb)
	}
	if _, ok := f.store.message(msgID); ok {
		t.Error("message still present after delete")
	}

	// Deleting again reports the message as missing.
	_, err = f.router.HandleCallback(context.Background(), testAdminID, relay.DeleteCallback(msgID))
	if !errors.Is(err, relay.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestRouterHandleCallbackReplyMissingMessage(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()

	_, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ReplyCallback(42))
	if !errors.Is(err, relay.ErrNotFound) {
		t.Fatalf("HandleCallback() error = %v, want ErrNotFound", err)
	}
	if got := f.router.PendingState(); got != relay.StateIdle {
		t.Errorf("PendingState() after failed reply start = %v, want StateIdle", got)
	}
}

func TestRouterHandleCallbackReplyUsernameFallback(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100, FirstName: "Alice"}, "question")

	cb, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ReplyCallback(msgID))
	if err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}
	if cb.TargetUsername != "Alice" {
		t.Errorf("TargetUsername = %q, want first name fallback", cb.TargetUsername)
	}
}

func TestRouterHandleCallbackClearStats(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	if err := f.store.CreateBroadcast(context.Background(), &database.Broadcast{Content: "old"}); err != nil {
		t.Fatalf("seeding broadcast: %v", err)
	}

	cb, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ClearStatsCallback())
	if err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}
	if cb.Action != relay.ActionClearStats {
		t.Errorf("HandleCallback() = %+v", cb)
	}

	left, err := f.store.ListBroadcasts(context.Background())
	if err != nil {
		t.Fatalf("ListBroadcasts() unexpected error: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("broadcasts remaining after clear = %d, want 0", len(left))
	}

	// Clearing an empty table is idempotent.
	if _, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ClearStatsCallback()); err != nil {
		t.Errorf("second clear unexpected error: %v", err)
	}
}

func TestRouterStartBroadcastReplacesPendingReply(t *testing.T) {
	t.Parallel()

	f := newRouterFixture()
	msgID := f.storeMessage(t, relay.UserInfo{UserID: 100, Username: "alice"}, "question")

	if _, err := f.router.HandleCallback(context.Background(), testAdminID, relay.ReplyCallback(msgID)); err != nil {
		t.Fatalf("HandleCallback() unexpected error: %v", err)
	}

	// Issuing a broadcast command replaces the pending reply wholesale.
	f.router.StartBroadcastFlow()
	if got := f.router.PendingState(); got != relay.StateAwaitingBroadcast {
		t.Fatalf("PendingState() = %v, want StateAwaitingBroadcast", got)
	}

	f.broadcasts.result = relay.Result{Total: 1, Sent: 1}
	res, err := f.router.ConsumeAdminState(context.Background(), relay.Payload{
		Kind: relay.PayloadText, Text: "to everyone",
	})
	if err != nil {
		t.Fatalf("ConsumeAdminState() unexpected error: %v", err)
	}
	if res == nil || res.Broadcast == nil || res.Reply != nil {
		t.Fatalf("ConsumeAdminState() = %+v, want broadcast outcome only", res)
	}

	// The replaced reply never ran: no direct delivery, message unread.
	if got := len(f.deliverer.deliveries()); got != 0 {
		t.Errorf("direct deliveries = %d, want 0", got)
	}
	msg, _ := f.store.message(msgID)
	if msg.IsRead {
		t.Error("orphaned reply source was marked read")
	}
}
