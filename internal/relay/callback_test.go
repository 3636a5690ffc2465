package relay_test

import (
	"errors"
	"testing"

	"github.com/edgard/relaybot/internal/relay"
)

func TestCallbackEncoding(t *testing.T) {
	t.Parallel()

	if got := relay.ReplyCallback(42); got != "reply_42" {
		t.Errorf("ReplyCallback(42) = %q, want %q", got, "reply_42")
	}
	if got := relay.DeleteCallback(7); got != "delete_7" {
		t.Errorf("DeleteCallback(7) = %q, want %q", got, "delete_7")
	}
	if got := relay.ClearStatsCallback(); got != "clear_stats" {
		t.Errorf("ClearStatsCallback() = %q, want %q", got, "clear_stats")
	}
}

func TestParseCallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       string
		wantAction relay.CallbackAction
		wantID     int64
		wantErr    bool
	}{
		{
			name:       "reply action",
			data:       "reply_42",
			wantAction: relay.ActionReply,
			wantID:     42,
		},
		{
			name:       "delete action",
			data:       "delete_123",
			wantAction: relay.ActionDelete,
			wantID:     123,
		},
		{
			name:       "clear stats action",
			data:       "clear_stats",
			wantAction: relay.ActionClearStats,
			wantID:     0,
		},
		{
			name:    "empty payload",
			data:    "",
			wantErr: true,
		},
		{
			name:    "unknown action",
			data:    "ban_42",
			wantErr: true,
		},
		{
			name:    "missing argument",
			data:    "reply",
			wantErr: true,
		},
		{
			name:    "non-numeric argument",
			data:    "reply_abc",
			wantErr: true,
		},
		{
			name:    "zero message id",
			data:    "delete_0",
			wantErr: true,
		},
		{
			name:    "negative message id",
			data:    "reply_-5",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action, id, err := relay.ParseCallback(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCallback(%q) expected error, got action=%v id=%d", tt.data, action, id)
				}
				if !errors.Is(err, relay.ErrMalformedCallback) {
					t.Errorf("ParseCallback(%q) error = %v, want ErrMalformedCallback", tt.data, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseCallback(%q) unexpected error: %v", tt.data, err)
			}
			if action != tt.wantAction {
				t.Errorf("ParseCallback(%q) action = %v, want %v", tt.data, action, tt.wantAction)
			}
			if id != tt.wantID {
				t.Errorf("ParseCallback(%q) id = %d, want %d", tt.data, id, tt.wantID)
			}
		})
	}
}
