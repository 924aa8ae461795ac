package session

import "sync"

// CredentialStore holds the one-time create/join token and the persisted
// session id, the browser-cookie analogue. ClearTokens is called exactly
// once when the connection opens.
type CredentialStore interface {
	CreateToken() string
	JoinToken() string
	ClearTokens()
	SetSessionID(id string)
	SessionID() string
}

// MemoryCredentials is an in-process CredentialStore, used when no durable
// store is configured and by tests.
type MemoryCredentials struct {
	mu          sync.Mutex
	createToken string
	joinToken   string
	sessionID   string
}

// NewMemoryCredentials creates a MemoryCredentials holding the given
// one-time tokens. At most one of them should be set.
func NewMemoryCredentials(createToken, joinToken string) *MemoryCredentials {
	return &MemoryCredentials{createToken: createToken, joinToken: joinToken}
}

func (m *MemoryCredentials) CreateToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createToken
}

func (m *MemoryCredentials) JoinToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joinToken
}

func (m *MemoryCredentials) ClearTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createToken = ""
	m.joinToken = ""
}

func (m *MemoryCredentials) SetSessionID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = id
}

func (m *MemoryCredentials) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

var _ CredentialStore = (*MemoryCredentials)(nil)
