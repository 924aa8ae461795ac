package localstore

import (
	"context"
	"log"
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/session"
)

const sessionIDKey = "session_id"

// Credentials is a session.CredentialStore that keeps the one-time
// create/join token in memory (it never outlives the process) and persists
// the session id in the cache database, so a restarted client can rejoin
// its live session.
type Credentials struct {
	mu          sync.Mutex
	cache       *Cache
	createToken string
	joinToken   string
}

// NewCredentials creates a Credentials backed by cache. At most one of the
// tokens should be non-empty.
func NewCredentials(cache *Cache, createToken, joinToken string) *Credentials {
	return &Credentials{cache: cache, createToken: createToken, joinToken: joinToken}
}

func (c *Credentials) CreateToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createToken
}

func (c *Credentials) JoinToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinToken
}

func (c *Credentials) ClearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createToken = ""
	c.joinToken = ""
}

func (c *Credentials) SetSessionID(id string) {
	if err := c.cache.SetSessionValue(context.Background(), sessionIDKey, id); err != nil {
		log.Printf("localstore: failed to persist session id: %v", err)
	}
}

func (c *Credentials) SessionID() string {
	id, err := c.cache.GetSessionValue(context.Background(), sessionIDKey)
	if err != nil {
		log.Printf("localstore: failed to read session id: %v", err)
		return ""
	}
	return id
}

var _ session.CredentialStore = (*Credentials)(nil)
