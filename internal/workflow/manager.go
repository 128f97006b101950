// Package workflow drives the incident intake and dispatch workflow for the
// dashboard: one session per triaged incident, holding the Incident Draft,
// upload/processing progress and panel-local errors. Handlers poll a session's
// state snapshot; all mutation goes through session methods that serialize
// access with a mutex.
package workflow

import (
	"sync"

	"github.com/google/uuid"

	"emergency-dashboard/internal/backend"
)

// Manager owns all live dashboard sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	client   *backend.Client
}

// NewManager creates a session manager backed by the given backend client.
func NewManager(client *backend.Client) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		client:   client,
	}
}

// Create starts a new session with an empty draft.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.client)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Remove tears a session down, stopping any progress timer it still owns.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if s != nil {
		s.Close()
	}
}
