package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched browser session is kept.
const DefaultIdleTTL = 12 * time.Hour

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry maps browser session ids to their Store. Entries not touched
// within IdleTTL are dropped.
type Registry struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*entry

	IdleTTL time.Duration
	NewID   func() string
	Now     func() time.Time
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*entry),
		IdleTTL:  DefaultIdleTTL,
		NewID:    uuid.NewString,
		Now:      time.Now,
	}
}

// Register stores s under a fresh id. Callers register only signed-in
// stores, so anonymous requests never grow the registry.
func (r *Registry) Register(s *Store) string {
	id := r.NewID()
	now := r.Now()
	r.mu.Lock()
	r.pruneLocked(now)
	r.sessions[id] = &entry{store: s, lastSeen: now}
	r.mu.Unlock()
	return id
}

// Get returns the live store for id and refreshes its idle timer.
func (r *Registry) Get(id string) (*Store, bool) {
	now := r.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.expired(e, now) {
		delete(r.sessions, id)
		return nil, false
	}
	e.lastSeen = now
	return e.store, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of registered sessions, expired ones included
// until the next prune.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Options returns the profile defaults new stores are built with.
func (r *Registry) Options() Options {
	return r.opts
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.IdleTTL > 0 && now.Sub(e.lastSeen) > r.IdleTTL
}

func (r *Registry) pruneLocked(now time.Time) {
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
		}
	}
}
