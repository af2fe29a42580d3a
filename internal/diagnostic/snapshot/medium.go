// Package snapshot provides the persistence media behind the session store.
// A Medium is a plain byte-oriented key/value surface keyed by diagnostic
// code; the durable implementation is backed by BadgerDB and an in-memory
// implementation exists for tests and for environments without a writable
// data directory.
package snapshot

import (
	"sync"
)

// keyPrefix namespaces session snapshots inside a shared medium. It matches
// the storage key format used by earlier releases so existing snapshots stay
// readable.
const keyPrefix = "diagnostic_session:"

// Medium is a minimal key/value surface. Keys are diagnostic codes; the
// prefix handling is internal to each implementation. Get returns ok=false
// for absent keys.
type Medium interface {
	Get(diagnosticCode string) ([]byte, bool, error)
	Set(diagnosticCode string, value []byte) error
	Delete(diagnosticCode string) error
	Keys() ([]string, error)
	Close() error
}

// MemoryMedium is a process-local Medium. Each instance is independently
// owned; nothing in this package holds a hidden singleton.
type MemoryMedium struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryMedium creates an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{entries: map[string][]byte{}}
}

func (m *MemoryMedium) Get(diagnosticCode string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[keyPrefix+diagnosticCode]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *MemoryMedium) Set(diagnosticCode string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[keyPrefix+diagnosticCode] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryMedium) Delete(diagnosticCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, keyPrefix+diagnosticCode)
	return nil
}

func (m *MemoryMedium) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.entries))
	for key := range m.entries {
		codes = append(codes, key[len(keyPrefix):])
	}
	return codes, nil
}

func (m *MemoryMedium) Close() error {
	return nil
}
