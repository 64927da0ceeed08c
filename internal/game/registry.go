package game

import "sync"

// Registry is the process-wide mapping from guild ID to the guild's single
// active session. All access goes through the mutex; callers receive session
// pointers and operate on them snapshot-consistently, so a session removed
// mid-processing simply drops that event's correlation.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create installs a session for the guild, silently replacing any existing one.
func (r *Registry) Create(guildID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[guildID] = s
}

// Get returns the guild's active session, if any.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Destroy removes the guild's session and reports whether one existed.
func (r *Registry) Destroy(guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	return ok
}

// ForEach calls fn for every active session. The session set is snapshotted
// under the lock and fn runs outside it, so fn may call back into sessions
// without deadlocking.
func (r *Registry) ForEach(fn func(guildID string, s *Session)) {
	r.mu.Lock()
	snapshot := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s
	}
	r.mu.Unlock()

	for id, s := range snapshot {
		fn(id, s)
	}
}
