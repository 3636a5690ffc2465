package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Deliverer sends one message to one recipient. Implemented by Engine;
// consumers depend on the interface so tests can substitute failures.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, p Payload) error
}

// Engine is the bounded-retry single-recipient send primitive. A send is
// attempted up to maxAttempts times with a fixed pause between failures;
// all failure causes are treated identically. The engine never touches
// the record store.
type Engine struct {
	sender      Sender
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewEngine creates a delivery engine over the given transport.
func NewEngine(sender Sender, maxAttempts int, retryDelay time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Engine{
		sender:      sender,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger.With("component", "delivery"),
	}
}

// Deliver sends the payload to chatID, retrying on failure. It returns nil
// on the first successful attempt, or ErrTransportFailure wrapping the
// last cause once all attempts are exhausted.
func (e *Engine) Deliver(ctx context.Context, chatID int64, p Payload) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.send(ctx, chatID, p); err == nil {
			if attempt > 1 {
				e.logger.DebugContext(ctx, "Delivery succeeded after retry",
					"chat_id", chatID, "attempt", attempt)
			}
			return nil
		} else {
			lastErr = err
		}

		if attempt == e.maxAttempts {
			break
		}

		e.logger.DebugContext(ctx, "Delivery attempt failed, retrying",
			"chat_id", chatID, "attempt", attempt, "error", lastErr)

		if err := sleepCtx(ctx, e.retryDelay); err != nil {
			return fmt.Errorf("%w: %w", ErrTransportFailure, err)
		}
	}

	e.logger.WarnContext(ctx, "Delivery failed after all attempts",
		"chat_id", chatID, "attempts", e.maxAttempts, "error", lastErr)
	return fmt.Errorf("%w: after %d attempts: %w", ErrTransportFailure, e.maxAttempts, lastErr)
}

func (e *Engine) send(ctx context.Context, chatID int64, p Payload) error {
	switch p.Kind {
	case PayloadPhoto:
		return e.sender.SendPhoto(ctx, chatID, p.FileID, p.Caption)
	case PayloadVideo:
		return e.sender.SendVideo(ctx, chatID, p.FileID)
	case PayloadDocument:
		return e.sender.SendDocument(ctx, chatID, p.FileID)
	default:
		return e.sender.SendText(ctx, chatID, p.Text)
	}
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	tmr := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !tmr.Stop() {
			<-tmr.C
		}
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
