package session

import (
	"sync"
	"time"
)

// Step is a position in the intake wizard.
type Step string

const (
	StepName  Step = "name"
	StepEmail Step = "email"
	StepChat  Step = "chat"
)

// Context is the per-conversation wizard state. It is never persisted.
type Context struct {
	Step      Step
	Name      string
	Email     string
	UpdatedAt time.Time
}

// Manager keys contexts by conversation ID. Values are copied in and out so
// that callers never share a Context.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]Context
	now      func() time.Time
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]Context), now: time.Now}
}

// Reset starts the conversation over at StepName.
func (m *Manager) Reset(id int64) Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Context{Step: StepName, UpdatedAt: m.now()}
	m.sessions[id] = c
	return c
}

// Get returns the context for id. A conversation that was never started
// behaves as if it were at StepName.
func (m *Manager) Get(id int64) Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	if !ok {
		return Context{Step: StepName}
	}
	return c
}

// Put stores c for id and stamps it with the current time.
func (m *Manager) Put(id int64, c Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.UpdatedAt = m.now()
	m.sessions[id] = c
}

// Len returns the number of tracked conversations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ExpireIdle drops contexts that are still registering (StepName or
// StepEmail) and have not been touched for longer than ttl. Contexts in
// StepChat are kept: the user is already registered and could not register
// again. It returns the number of dropped contexts.
func (m *Manager) ExpireIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-ttl)
	n := 0
	for id, c := range m.sessions {
		if c.Step == StepChat || !c.UpdatedAt.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		n++
	}
	return n
}
