package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/relaybot/internal/database"
)

// Result is the aggregate outcome of one broadcast run.
// Total == Sent + Failed == size of the active-user snapshot.
type Result struct {
	Total  int
	Sent   int
	Failed int
}

// Broadcaster fans one message out to all active users. Implemented by
// Coordinator.
type Broadcaster interface {
	Run(ctx context.Context, p Payload) (Result, error)
}

// Coordinator fans a message out to the set of users that were active at
// invocation time, sequentially, through the delivery engine, and records
// the aggregate outcome in the broadcast table.
type Coordinator struct {
	store     database.Store
	deliverer Deliverer
	pause     time.Duration
	logger    *slog.Logger
}

// NewCoordinator creates a broadcast coordinator. pause is the fixed
// delay inserted between recipients to stay under transport rate limits.
func NewCoordinator(store database.Store, deliverer Deliverer, pause time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		store:     store,
		deliverer: deliverer,
		pause:     pause,
		logger:    logger.With("component", "broadcast"),
	}
}

// Run executes one broadcast. The recipient set is snapshotted up front;
// later activation changes do not affect an in-flight run. The broadcast
// record is created before the first send so a crash mid-run still leaves
// an auditable partial record, and completed with final counts once the
// fan-out finishes.
func (c *Coordinator) Run(ctx context.Context, p Payload) (Result, error) {
	users, err := c.store.ActiveUsers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to snapshot recipients: %w", err)
	}

	record := &database.Broadcast{Content: p.DisplayText()}
	if err := c.store.CreateBroadcast(ctx, record); err != nil {
		return Result{}, fmt.Errorf("failed to create broadcast record: %w", err)
	}

	c.logger.InfoContext(ctx, "Broadcast started",
		"broadcast_id", record.ID, "recipients", len(users))

	res := Result{Total: len(users)}
	for i, u := range users {
		if err := c.deliverer.Deliver(ctx, u.UserID, p); err != nil {
			res.Failed++
			c.logger.WarnContext(ctx, "Broadcast delivery failed",
				"broadcast_id", record.ID, "user_id", u.UserID, "error", err)
		} else {
			res.Sent++
		}

		if i < len(users)-1 {
			if err := sleepCtx(ctx, c.pause); err != nil {
				// Cancelled mid-run: the remaining recipients count as failed
				// so the record still accounts for the whole snapshot.
				res.Failed += res.Total - res.Sent - res.Failed
				break
			}
		}
	}

	completedAt := time.Now().UTC()
	if err := c.store.CompleteBroadcast(ctx, record.ID, res.Sent, res.Failed, completedAt); err != nil {
		return res, fmt.Errorf("failed to complete broadcast record: %w", err)
	}

	c.logger.InfoContext(ctx, "Broadcast finished",
		"broadcast_id", record.ID, "total", res.Total, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}
