package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Methods accept a
// context.Context for cancellation and timeouts; each call is one
// short-lived operation against the pool.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser inserts a user record or refreshes the handle fields of
	// an existing one, keyed by the external user_id.
	UpsertUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by external user_id. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// ActiveUsers retrieves all users with the active flag set.
	ActiveUsers(ctx context.Context) ([]User, error)

	// SetUserActive toggles a user's active flag.
	SetUserActive(ctx context.Context, userID int64, active bool) error

	// SaveInboundMessage inserts a new inbound message record.
	SaveInboundMessage(ctx context.Context, msg *InboundMessage) error

	// GetInboundMessage retrieves an inbound message by ID. Returns nil, nil if not found.
	GetInboundMessage(ctx context.Context, id int64) (*InboundMessage, error)

	// UnreadMessages retrieves all unread inbound messages joined with
	// their owners' handles, oldest first.
	UnreadMessages(ctx context.Context) ([]UnreadMessage, error)

	// MarkMessageRead sets the read flag on an inbound message.
	MarkMessageRead(ctx context.Context, id int64) error

	// DeleteInboundMessage removes an inbound message.
	DeleteInboundMessage(ctx context.Context, id int64) error

	// CreateBroadcast inserts a broadcast record with zero counts and no
	// completion time, populating msg.ID and msg.CreatedAt.
	CreateBroadcast(ctx context.Context, b *Broadcast) error

	// CompleteBroadcast records the final counts and completion time.
	CompleteBroadcast(ctx context.Context, id int64, sent, failed int, completedAt time.Time) error

	// ListBroadcasts retrieves all broadcast records, newest first.
	ListBroadcasts(ctx context.Context) ([]Broadcast, error)

	// DeleteAllBroadcasts removes every broadcast record.
	DeleteAllBroadcasts(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser inserts a user or refreshes the handle fields of an existing one.
func (s *sqlxStore) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.UserID == 0 {
		return fmt.Errorf("user must have a non-zero user_id")
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user upsert",
			"user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT 1 FROM users WHERE user_id = ? LIMIT 1`, user.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking if user exists",
			"user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to check if user %d exists: %w", user.UserID, err)
	}

	var result sql.Result

	if exists {
		// Only the handle fields may change; the active flag is managed
		// separately and must survive upserts.
		query := `
			UPDATE users SET
				username = :username,
				first_name = :first_name,
				last_name = :last_name
			WHERE user_id = :user_id
		`
		result, err = tx.NamedExecContext(ctx, query, user)
	} else {
		query := `
			INSERT INTO users (user_id, username, first_name, last_name, is_active, created_at)
			VALUES (:user_id, :username, :first_name, :last_name, :is_active, :created_at)
		`
		user.IsActive = true
		result, err = tx.NamedExecContext(ctx, query, user)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving user", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to save user %d: %w", user.UserID, err)
	}

	if !exists {
		if id, idErr := result.LastInsertId(); idErr == nil {
			//nolint:gosec // integer overflow conversion is acceptable here
			user.ID = uint(id)
		} else {
			s.logger.WarnContext(ctx, "Could not get last insert ID for user",
				"user_id", user.UserID, "error", idErr)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	operation := "updated"
	if !exists {
		operation = "created"
	}
	s.logger.DebugContext(ctx, "User saved", "operation", operation, "user_id", user.UserID)
	return nil
}

// GetUser retrieves a user by external user_id. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	query := `SELECT id, user_id, username, first_name, last_name, is_active, created_at
	          FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

// ActiveUsers retrieves all users with the active flag set.
func (s *sqlxStore) ActiveUsers(ctx context.Context) ([]User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var users []User
	query := `SELECT id, user_id, username, first_name, last_name, is_active, created_at
	          FROM users WHERE is_active = 1 ORDER BY id ASC`

	err := s.db.SelectContext(ctx, &users, query)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting active users", "error", err)
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched active users", "count", len(users))
	return users, nil
}

// SetUserActive toggles a user's active flag.
func (s *sqlxStore) SetUserActive(ctx context.Context, userID int64, active bool) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_active = ? WHERE user_id = ?`, active, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating user active flag",
			"user_id", userID, "active", active, "error", err)
		return fmt.Errorf("failed to update active flag for user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	s.logger.DebugContext(ctx, "User active flag updated", "user_id", userID, "active", active)
	return nil
}

// SaveInboundMessage inserts a new inbound message record.
func (s *sqlxStore) SaveInboundMessage(ctx context.Context, msg *InboundMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if msg.UserID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if msg.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO inbound_messages (user_id, content, is_read, parent_id, created_at)
		VALUES (:user_id, :content, :is_read, :parent_id, :created_at)
	`

	result, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving inbound message",
			"user_id", msg.UserID, "error", err)
		return fmt.Errorf("failed to save inbound message from user %d: %w", msg.UserID, err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		msg.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"user_id", msg.UserID, "error", idErr)
	}

	s.logger.DebugContext(ctx, "Inbound message saved",
		"message_id", msg.ID, "user_id", msg.UserID)
	return nil
}

// GetInboundMessage retrieves an inbound message by ID. Returns nil, nil if not found.
func (s *sqlxStore) GetInboundMessage(ctx context.Context, id int64) (*InboundMessage, error) {
	if id <= 0 {
		return nil, fmt.Errorf("message id must be positive")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var msg InboundMessage
	query := `SELECT id, user_id, content, is_read, parent_id, created_at
	          FROM inbound_messages WHERE id = ?`

	err := s.db.GetContext(ctx, &msg, query, id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No inbound message found", "message_id", id)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting inbound message", "message_id", id, "error", err)
		return nil, fmt.Errorf("failed to get inbound message %d: %w", id, err)
	}

	return &msg, nil
}

// UnreadMessages retrieves all unread inbound messages with their owners'
// handles, oldest first.
func (s *sqlxStore) UnreadMessages(ctx context.Context) ([]UnreadMessage, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []UnreadMessage
	query := `
		SELECT m.id, m.user_id, u.username, m.content, m.created_at
		FROM inbound_messages m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.is_read = 0
		ORDER BY m.created_at ASC, m.id ASC
	`

	err := s.db.SelectContext(ctx, &messages, query)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting unread messages", "error", err)
		return nil, fmt.Errorf("failed to get unread messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched unread messages", "count", len(messages))
	return messages, nil
}

// MarkMessageRead sets the read flag on an inbound message.
func (s *sqlxStore) MarkMessageRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("message id must be positive")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE inbound_messages SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking message as read", "message_id", id, "error", err)
		return fmt.Errorf("failed to mark message %d as read: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		s.logger.WarnContext(ctx, "Mark-read affected no rows", "message_id", id)
	}

	s.logger.DebugContext(ctx, "Message marked as read", "message_id", id)
	return nil
}

// DeleteInboundMessage removes an inbound message.
func (s *sqlxStore) DeleteInboundMessage(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("message id must be positive")
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM inbound_messages WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting inbound message", "message_id", id, "error", err)
		return fmt.Errorf("failed to delete inbound message %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	s.logger.InfoContext(ctx, "Inbound message deleted", "message_id", id)
	return nil
}

// CreateBroadcast inserts a broadcast record with zero counts and no
// completion time.
func (s *sqlxStore) CreateBroadcast(ctx context.Context, b *Broadcast) error {
	if b == nil {
		return fmt.Errorf("cannot save nil broadcast")
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	b.SentCount = 0
	b.FailedCount = 0
	b.CompletedAt = sql.NullTime{}

	query := `
		INSERT INTO broadcasts (content, sent_count, failed_count, created_at, completed_at)
		VALUES (:content, :sent_count, :failed_count, :created_at, :completed_at)
	`

	result, err := s.db.NamedExecContext(ctx, query, b)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating broadcast record", "error", err)
		return fmt.Errorf("failed to create broadcast record: %w", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		b.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID for broadcast", "error", idErr)
	}

	s.logger.DebugContext(ctx, "Broadcast record created", "broadcast_id", b.ID)
	return nil
}

// CompleteBroadcast records the final counts and completion time.
func (s *sqlxStore) CompleteBroadcast(ctx context.Context, id int64, sent, failed int, completedAt time.Time) error {
	if id <= 0 {
		return fmt.Errorf("broadcast id must be positive")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE broadcasts
		SET sent_count = ?, failed_count = ?, completed_at = ?
		WHERE id = ?
	`, sent, failed, completedAt, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error completing broadcast record",
			"broadcast_id", id, "error", err)
		return fmt.Errorf("failed to complete broadcast %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected completing broadcast",
			"broadcast_id", id, "affected", affected)
	}

	s.logger.InfoContext(ctx, "Broadcast completed",
		"broadcast_id", id, "sent", sent, "failed", failed)
	return nil
}

// ListBroadcasts retrieves all broadcast records, newest first.
func (s *sqlxStore) ListBroadcasts(ctx context.Context) ([]Broadcast, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var broadcasts []Broadcast
	query := `SELECT id, content, sent_count, failed_count, created_at, completed_at
	          FROM broadcasts ORDER BY created_at DESC, id DESC`

	err := s.db.SelectContext(ctx, &broadcasts, query)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error listing broadcasts", "error", err)
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}

	return broadcasts, nil
}

// DeleteAllBroadcasts removes every broadcast record. Safe to call when
// no records remain.
func (s *sqlxStore) DeleteAllBroadcasts(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM broadcasts`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting broadcast records", "error", err)
		return fmt.Errorf("failed to delete broadcast records: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted all broadcast records", "count", count)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
