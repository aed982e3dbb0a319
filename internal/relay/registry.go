package relay

import "sync"

// Session is one live connection as seen by the registry and the fan-out
// engine. Push must be safe to call from any goroutine and must fail fast
// once the underlying transport is gone.
type Session interface {
	ID() string
	Push(frame []byte) error
}

// SessionRegistry maps an authenticated user id to the set of live sessions
// for that user. A user may hold several sessions at once (one per tab).
// All methods are safe for concurrent use; callers never hold an external
// lock.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uint]map[Session]struct{}
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uint]map[Session]struct{})}
}

// Register adds the session to the user's set, creating the set if absent.
// Registering the same pair twice is a no-op.
func (r *SessionRegistry) Register(userID uint, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[Session]struct{})
		r.sessions[userID] = set
	}
	set[s] = struct{}{}
}

// Unregister removes the session. The user's entry is deleted outright when
// its set becomes empty so idle users cost no memory.
func (r *SessionRegistry) Unregister(userID uint, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(r.sessions, userID)
	}
}

// ConnectionsFor returns a snapshot of the user's live sessions. The snapshot
// may race with connection churn; a session closing after the snapshot is
// taken surfaces as a Push error, not a registry error.
func (r *SessionRegistry) ConnectionsFor(userID uint) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.sessions[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// UserCount returns the number of users with at least one live session.
func (r *SessionRegistry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SessionCount returns the total number of live sessions.
func (r *SessionRegistry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.sessions {
		n += len(set)
	}
	return n
}
