package state

import (
	"sync"
)

// Manager owns the mutable world and player state for one session. All
// methods serialize through an internal mutex; concurrent calls against the
// same session see last-write-wins, never torn writes. Managers are never
// shared across sessions.
type Manager struct {
	sessionID string

	mu            sync.Mutex
	variables     map[string]any
	environment   Environment
	relationships map[string]*Relationship
	inventory     map[string]*Item
}

func NewManager(sessionID string) *Manager {
	return &Manager{
		sessionID:     sessionID,
		variables:     make(map[string]any),
		environment:   defaultEnvironment(),
		relationships: make(map[string]*Relationship),
		inventory:     make(map[string]*Item),
	}
}

func (m *Manager) SessionID() string {
	return m.sessionID
}

// SetVariable stores a flat session variable, last write wins.
func (m *Manager) SetVariable(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variables[name] = value
}

// GetVariable returns the variable's value, or def when unset.
func (m *Manager) GetVariable(name string, def any) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.variables[name]; ok {
		return v
	}
	return def
}

// Variables returns a copy of the flat variable map for persistence.
func (m *Manager) Variables() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.variables))
	for k, v := range m.variables {
		out[k] = v
	}
	return out
}

// Restore merges previously persisted variables into the session. Existing
// values are overwritten.
func (m *Manager) Restore(vars map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range vars {
		m.variables[k] = v
	}
}

// SetDefault stores a variable only when it is currently unset.
func (m *Manager) SetDefault(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.variables[name]; !ok {
		m.variables[name] = value
	}
}

// Summary reports every state facet for the state inspection endpoint.
func (m *Manager) Summary() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	rels := make(map[string]any, len(m.relationships))
	for key, rel := range m.relationships {
		rels[key] = map[string]any{
			"trust":             rel.Trust,
			"respect":           rel.Respect,
			"familiarity":       rel.Familiarity,
			"disposition":       rel.Disposition(),
			"interaction_count": rel.InteractionCount,
			"memories":          append([]string(nil), rel.Memories...),
		}
	}

	items := make(map[string]any, len(m.inventory))
	for id, item := range m.inventory {
		items[id] = map[string]any{
			"name":      item.Name,
			"quantity":  item.Quantity,
			"condition": item.Condition,
		}
	}

	vars := make(map[string]any, len(m.variables))
	for k, v := range m.variables {
		vars[k] = v
	}

	return map[string]any{
		"session_id": m.sessionID,
		"variables":  vars,
		"environment": map[string]any{
			"time_of_day":  m.environment.TimeOfDay,
			"weather":      m.environment.Weather,
			"danger_level": m.environment.DangerLevel,
		},
		"relationships": rels,
		"inventory":     items,
	}
}
