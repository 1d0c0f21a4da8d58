package auth

import "sync"

// Credentials captures the API key pair used for authenticated requests.
type Credentials struct {
	Token  string
	Secret string
}

// Valid reports whether both halves of the key pair are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.Secret != ""
}

// CredentialStore supplies and receives the API key pair for a session.
// Implementations are read before every authenticated call and may be
// accessed from concurrent request paths.
type CredentialStore interface {
	Load() (Credentials, bool)
	Store(Credentials)
	Clear()
}

// MemoryStore is a process-local credential store.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	set   bool
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return new(MemoryStore)
}

// Load returns the held credentials and whether a valid pair is present.
func (m *MemoryStore) Load() (Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set || !m.creds.Valid() {
		return Credentials{}, false
	}
	return m.creds, true
}

// Store replaces the held credentials.
func (m *MemoryStore) Store(creds Credentials) {
	m.mu.Lock()
	m.creds = creds
	m.set = true
	m.mu.Unlock()
}

// Clear removes the held credentials.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.creds = Credentials{}
	m.set = false
	m.mu.Unlock()
}
