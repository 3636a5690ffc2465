package relay

import "sync"

// StateKind identifies what the next message from an admin means.
type StateKind int

const (
	// StateIdle: no flow in progress; the zero value.
	StateIdle StateKind = iota
	// StateAwaitingBroadcast: the next admin message is broadcast content.
	StateAwaitingBroadcast
	// StateAwaitingReply: the next admin message is a reply to a specific
	// user's message.
	StateAwaitingReply
)

// State is the transient per-admin conversation marker. TargetUserID and
// SourceMessageID are meaningful only for StateAwaitingReply.
type State struct {
	Kind            StateKind
	TargetUserID    int64
	SourceMessageID int64
}

// Valid reports whether the state is one of the defined variants with
// structurally sound arguments.
func (s State) Valid() bool {
	switch s.Kind {
	case StateIdle, StateAwaitingBroadcast:
		return true
	case StateAwaitingReply:
		return s.TargetUserID > 0 && s.SourceMessageID > 0
	}
	return false
}

// StateStore holds conversation states keyed by admin identity. It exists
// only in process memory; a restart silently resets all pending flows to
// idle. Keying by identity leaves room for multiple admins even though the
// current configuration names exactly one.
type StateStore struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]State)}
}

// Get returns the state for adminID, or idle if none is set.
func (ss *StateStore) Get(adminID int64) State {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.states[adminID]
}

// Set records a state for adminID, replacing any previous one. Setting
// idle removes the entry.
func (ss *StateStore) Set(adminID int64, st State) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if st.Kind == StateIdle {
		delete(ss.states, adminID)
		return
	}
	ss.states[adminID] = st
}

// Clear resets adminID to idle.
func (ss *StateStore) Clear(adminID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.states, adminID)
}
