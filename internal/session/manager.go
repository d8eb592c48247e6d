package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager holds the live orchestrators keyed by session ID. Sessions live in
// memory for their lifetime; only their outcomes are persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Orchestrator
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Orchestrator),
	}
}

// Add registers a new orchestrator.
func (m *Manager) Add(id uuid.UUID, o *Orchestrator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = o
}

// Get returns the orchestrator for a session.
func (m *Manager) Get(id uuid.UUID) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return o, nil
}

// Remove closes and drops a session.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	o, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		o.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Orchestrator, 0, len(m.sessions))
	for _, o := range m.sessions {
		sessions = append(sessions, o)
	}
	m.sessions = make(map[uuid.UUID]*Orchestrator)
	m.mu.Unlock()

	for _, o := range sessions {
		o.Close()
	}
}
