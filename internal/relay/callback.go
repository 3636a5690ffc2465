package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackAction is the action kind encoded in an inline button payload.
type CallbackAction int

const (
	ActionReply CallbackAction = iota
	ActionDelete
	ActionClearStats
)

// Button payload encoding: a flat string split on "_".
const (
	callbackDelimiter  = "_"
	callbackReply      = "reply"
	callbackDelete     = "delete"
	callbackClearStats = "clear_stats"
)

// ReplyCallback encodes the button payload for replying to a message.
func ReplyCallback(messageID int64) string {
	return callbackReply + callbackDelimiter + strconv.FormatInt(messageID, 10)
}

// DeleteCallback encodes the button payload for discarding a message.
func DeleteCallback(messageID int64) string {
	return callbackDelete + callbackDelimiter + strconv.FormatInt(messageID, 10)
}

// ClearStatsCallback encodes the button payload for clearing broadcast stats.
func ClearStatsCallback() string {
	return callbackClearStats
}

// ParseCallback decodes a button payload into its action kind and message
// argument. Returns ErrMalformedCallback for anything that does not match
// the three known encodings.
func ParseCallback(data string) (CallbackAction, int64, error) {
	if data == callbackClearStats {
		return ActionClearStats, 0, nil
	}

	prefix, arg, found := strings.Cut(data, callbackDelimiter)
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
	}

	var action CallbackAction
	switch prefix {
	case callbackReply:
		action = ActionReply
	case callbackDelete:
		action = ActionDelete
	default:
		return 0, 0, fmt.Errorf("%w: unknown action in %q", ErrMalformedCallback, data)
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, fmt.Errorf("%w: bad message id in %q", ErrMalformedCallback, data)
	}

	return action, id, nil
}
