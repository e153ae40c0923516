package keychain

import "sync"

// MemoryBackend is an in-memory Backend for tests. It can be told to fail
// so callers can exercise their error paths.
type MemoryBackend struct {
	mu      sync.RWMutex
	name    Name
	secret  string
	present bool
	fail    error
	writes  int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(name Name) *MemoryBackend {
	return &MemoryBackend{name: name}
}

// FailWith makes every subsequent operation return an *Error of the given
// kind. Pass nil to clear.
func (m *MemoryBackend) FailWith(kind error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = kind
}

// Writes counts Store and Delete calls that reached the backend.
func (m *MemoryBackend) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryBackend) Name() Name { return m.name }

func (m *MemoryBackend) Store(secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return newError(m.fail, "store", nil)
	}
	m.secret = secret
	m.present = true
	return nil
}

func (m *MemoryBackend) Retrieve() (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return "", false, newError(m.fail, "retrieve", nil)
	}
	return m.secret, m.present, nil
}

func (m *MemoryBackend) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return newError(m.fail, "delete", nil)
	}
	m.secret = ""
	m.present = false
	return nil
}

func (m *MemoryBackend) Exists() (bool, error) {
	return exists(m)
}
