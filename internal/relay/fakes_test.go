package relay_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/edgard/relaybot/internal/database"
	"github.com/edgard/relaybot/internal/relay"
)

// fakeStore is an in-memory database.Store for exercising the relay
// subsystem without SQLite.
type fakeStore struct {
	mu sync.Mutex

	users      map[int64]database.User
	messages   map[int64]database.InboundMessage
	broadcasts map[int64]database.Broadcast

	nextMessageID   int64
	nextBroadcastID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[int64]database.User),
		messages:   make(map[int64]database.InboundMessage),
		broadcasts: make(map[int64]database.Broadcast),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) UpsertUser(_ context.Context, user *database.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.users[user.UserID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		f.users[user.UserID] = existing
		return nil
	}

	user.IsActive = true
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	f.users[user.UserID] = *user
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, userID int64) (*database.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeStore) ActiveUsers(context.Context) ([]database.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var users []database.User
	for _, u := range f.users {
		if u.IsActive {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) SetUserActive(_ context.Context, userID int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.IsActive = active
	f.users[userID] = u
	return nil
}

func (f *fakeStore) SaveInboundMessage(_ context.Context, msg *database.InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextMessageID++
	msg.ID = f.nextMessageID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	f.messages[msg.ID] = *msg
	return nil
}

func (f *fakeStore) GetInboundMessage(_ context.Context, id int64) (*database.InboundMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeStore) UnreadMessages(context.Context) ([]database.UnreadMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var unread []database.UnreadMessage
	for _, m := range f.messages {
		if m.IsRead {
			continue
		}
		unread = append(unread, database.UnreadMessage{
			ID:        m.ID,
			UserID:    m.UserID,
			Username:  f.users[m.UserID].Username,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return unread, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.messages[id]
	if !ok {
		return nil
	}
	m.IsRead = true
	f.messages[id] = m
	return nil
}

func (f *fakeStore) DeleteInboundMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.messages[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) CreateBroadcast(_ context.Context, b *database.Broadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextBroadcastID++
	b.ID = f.nextBroadcastID
	b.SentCount = 0
	b.FailedCount = 0
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	f.broadcasts[b.ID] = *b
	return nil
}

func (f *fakeStore) CompleteBroadcast(_ context.Context, id int64, sent, failed int, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.broadcasts[id]
	if !ok {
		return errors.New("broadcast not found")
	}
	b.SentCount = sent
	b.FailedCount = failed
	b.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	f.broadcasts[id] = b
	return nil
}

func (f *fakeStore) ListBroadcasts(context.Context) ([]database.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.Broadcast
	for _, b := range f.broadcasts {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) DeleteAllBroadcasts(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.broadcasts = make(map[int64]database.Broadcast)
	return nil
}

func (f *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

func (f *fakeStore) message(id int64) (database.InboundMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	return m, ok
}

func (f *fakeStore) broadcast(id int64) (database.Broadcast, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.broadcasts[id]
	return b, ok
}

// fakeDeliverer records deliveries and fails the chat IDs listed in failFor.
type fakeDeliverer struct {
	mu      sync.Mutex
	failFor map[int64]bool
	sent    []deliveredItem
}

type deliveredItem struct {
	chatID  int64
	payload relay.Payload
}

func newFakeDeliverer(failFor ...int64) *fakeDeliverer {
	fails := make(map[int64]bool, len(failFor))
	for _, id := range failFor {
		fails[id] = true
	}
	return &fakeDeliverer{failFor: fails}
}

func (d *fakeDeliverer) Deliver(_ context.Context, chatID int64, p relay.Payload) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failFor[chatID] {
		return relay.ErrTransportFailure
	}
	d.sent = append(d.sent, deliveredItem{chatID: chatID, payload: p})
	return nil
}

func (d *fakeDeliverer) deliveries() []deliveredItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]deliveredItem(nil), d.sent...)
}

// fakeBroadcaster records the payload it was asked to fan out and returns a
// canned result.
type fakeBroadcaster struct {
	result relay.Result
	err    error

	runs     int
	lastSent relay.Payload
}

func (b *fakeBroadcaster) Run(_ context.Context, p relay.Payload) (relay.Result, error) {
	b.runs++
	b.lastSent = p
	if b.err != nil {
		return relay.Result{}, b.err
	}
	return b.result, nil
}
