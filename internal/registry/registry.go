// Package registry tracks the sync sessions alive in this process and
// aggregates their activity into a single health snapshot, so an
// embedding application can see at a glance what replication is doing.
package registry

import (
	"sync"
	"time"
)

// Health is the aggregate condition of the registered sessions.
type Health string

const (
	// HealthHealthy means every session is progressing or idle.
	HealthHealthy Health = "healthy"
	// HealthDegraded means at least one session is offline or stuck
	// stopping.
	HealthDegraded Health = "degraded"
	// HealthIdle means no sessions are registered.
	HealthIdle Health = "idle"
)

// LevelFunc reports a session's current activity level name
// ("stopped", "offline", "connecting", "idle", "busy").
type LevelFunc func() string

// entry is one registered session.
type entry struct {
	level        LevelFunc
	registeredAt time.Time
}

// SessionState is one session's row in a snapshot.
type SessionState struct {
	ID           string    `json:"id"`
	Level        string    `json:"level"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Snapshot is a point-in-time view of all registered sessions.
type Snapshot struct {
	Health   Health         `json:"health"`
	Sessions []SessionState `json:"sessions"`
	Counts   map[string]int `json:"counts"`
	TakenAt  time.Time      `json:"taken_at"`
}

// Registry tracks live sessions. The zero value is not usable; create
// one with New.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
	}
}

// Register adds a session under id. Re-registering an id replaces the
// previous entry.
func (r *Registry) Register(id string, level LevelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; !exists {
		r.order = append(r.order, id)
	}
	r.sessions[id] = &entry{level: level, registeredAt: time.Now()}
}

// Unregister removes a session. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; !exists {
		return
	}
	delete(r.sessions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot queries every session's level and aggregates the result.
// Sessions are listed in registration order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	entries := make(map[string]*entry, len(r.sessions))
	for id, e := range r.sessions {
		entries[id] = e
	}
	r.mu.RUnlock()

	snap := Snapshot{
		Health:  HealthIdle,
		Counts:  make(map[string]int),
		TakenAt: time.Now(),
	}
	for _, id := range ids {
		e := entries[id]
		level := e.level()
		snap.Sessions = append(snap.Sessions, SessionState{
			ID:           id,
			Level:        level,
			RegisteredAt: e.registeredAt,
		})
		snap.Counts[level]++
	}

	if len(snap.Sessions) > 0 {
		snap.Health = HealthHealthy
		if snap.Counts["offline"] > 0 || snap.Counts["stopped"] > 0 {
			// A stopped session still registered has not finished
			// shutting down; both cases deserve attention.
			snap.Health = HealthDegraded
		}
	}
	return snap
}
