package database

import (
	"database/sql"
	"time"
)

// User represents a Telegram user known to the bot. Users are created on
// first inbound contact and never hard-deleted; IsActive is the only
// mutable flag and controls broadcast membership.
type User struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// InboundMessage is a message sent by a non-admin user, stored until the
// admin replies to it or discards it. ParentID is reserved for threaded
// dialogs and is not used by the routing logic.
type InboundMessage struct {
	ID        int64         `db:"id"`
	UserID    int64         `db:"user_id"`
	Content   string        `db:"content"`
	IsRead    bool          `db:"is_read"`
	ParentID  sql.NullInt64 `db:"parent_id"`
	CreatedAt time.Time     `db:"created_at"`
}

// UnreadMessage is an InboundMessage joined with its owner's handle, as
// presented to the admin by the /messages listing.
type UnreadMessage struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Broadcast records one fan-out campaign. The row is inserted with zero
// counts before the first send so a crash mid-run still leaves an
// auditable partial record; CompletedAt is set exactly once.
type Broadcast struct {
	ID          int64        `db:"id"`
	Content     string       `db:"content"`
	SentCount   int          `db:"sent_count"`
	FailedCount int          `db:"failed_count"`
	CreatedAt   time.Time    `db:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}
