// Package registry is a generic name to value store partitioned by domain.
package registry

import "sync"

// Registry maps (domain, name) pairs to opaque values.
type Registry interface {
	// Add stores the value, returning false if it could not be stored.
	Add(domain, name string, value interface{}) bool
	// Find looks up a value previously stored with Add.
	Find(domain, name string) (interface{}, bool)
}

type key struct {
	domain string
	name   string
}

// MapRegistry implements an in-memory Registry.
type MapRegistry struct {
	rw      sync.RWMutex
	entries map[key]interface{}
}

var _ Registry = (*MapRegistry)(nil)

// NewMapRegistry creates an empty registry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{}
}

// Add implements Registry.Add, later values replace earlier ones.
func (m *MapRegistry) Add(domain, name string, value interface{}) bool {
	if name == "" {
		return false
	}

	m.rw.Lock()
	defer m.rw.Unlock()

	if m.entries == nil {
		m.entries = make(map[key]interface{})
	}
	m.entries[key{domain, name}] = value
	return true
}

// Find implements Registry.Find.
func (m *MapRegistry) Find(domain, name string) (interface{}, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.entries[key{domain, name}]
	return val, ok
}

// Len returns the number of entries in the domain.
func (m *MapRegistry) Len(domain string) int {
	m.rw.RLock()
	defer m.rw.RUnlock()

	count := 0
	for k := range m.entries {
		if k.domain == domain {
			count++
		}
	}
	return count
}
