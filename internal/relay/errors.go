package relay

import "errors"

// Sentinel errors surfaced by the relay subsystem. Handlers translate
// these into short user-visible notices; everything else is logged and
// rendered as a generic error.
var (
	// ErrNotFound indicates a referenced user or message is absent.
	ErrNotFound = errors.New("not found")

	// ErrTransportFailure indicates a delivery failed after all attempts.
	ErrTransportFailure = errors.New("transport failure")

	// ErrMalformedState indicates the stored conversation state was not a
	// valid variant; the flow is force-reset to idle.
	ErrMalformedState = errors.New("malformed conversation state")

	// ErrMalformedCallback indicates button payload data could not be parsed.
	ErrMalformedCallback = errors.New("malformed callback data")

	// ErrUnauthorized indicates a non-admin attempted an admin action.
	ErrUnauthorized = errors.New("unauthorized")
)
