// Package secret keeps network share credentials in the OS keyring.
package secret

import "sync"

// Store abstracts a secure credentials store (e.g., OS keyring).
// Implementations should be safe to call from multiple goroutines.
type Store interface {
	Get(host, share string) (domain, user, pass string, found bool, err error)
	Set(host, share, domain, user, pass string) error
	Delete(host, share string) error
}

type entry struct{ domain, user, pass string }

// MemoryStore keeps credentials for the lifetime of the process. It is
// used when no keyring backend is available.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

func (m *MemoryStore) Get(host, share string) (string, string, string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[makeKey(host, share)]
	return e.domain, e.user, e.pass, ok, nil
}

func (m *MemoryStore) Set(host, share, domain, user, pass string) error {
	m.mu.Lock()
	m.entries[makeKey(host, share)] = entry{domain, user, pass}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(host, share string) error {
	m.mu.Lock()
	delete(m.entries, makeKey(host, share))
	m.mu.Unlock()
	return nil
}

// Open returns the keyring store, or a memory store when the keyring
// cannot be opened. The error reports why the keyring was unavailable.
func Open() (Store, error) {
	s, err := NewKeyringStore()
	if err != nil {
		return NewMemoryStore(), err
	}
	return s, nil
}
