package stage

import (
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Registry is a directory of live sessions keyed by id. It is safe for
// concurrent use. A session is present from Init until it is disposed or
// detached.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// DefaultRegistry backs the package-level Init, Dispose, GetInstance and
// DelInstance.
var DefaultRegistry = NewRegistry()

// Register stores s under a fresh id and returns the id.
func (r *Registry) Register(s *Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	return id
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Detach removes id without disposing its session. Unknown ids are
// ignored.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// DisposeAll empties the registry and disposes every session that was in
// it. Sessions are disposed outside the lock since disposal detaches.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	sessions := slices.Collect(maps.Values(r.sessions))
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Dispose()
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.sessions))
}
