package auth

import (
	"crypto/subtle"
	"sync"
	"time"
)

const csrfTokenBytes = 32

// csrfTokenEntry stores the live token for one client
type csrfTokenEntry struct {
	token  string
	expiry time.Time
}

// CSRFTokenManager issues and validates per-client CSRF tokens. Each client
// holds exactly one live token at a time: issuing a new one replaces the
// previous, so a token is only good until the next form render. Tokens are
// random 32-byte hex strings compared for equality on submit; they prove the
// submission came from the expected page load, nothing more.
type CSRFTokenManager struct {
	mu       sync.RWMutex
	tokens   map[string]*csrfTokenEntry // clientID -> live token
	tokenTTL time.Duration
}

// NewCSRFTokenManager creates a manager whose tokens expire after ttl.
// Expired entries are dropped lazily on validation and in bulk by Sweep,
// which the janitor calls periodically.
func NewCSRFTokenManager(ttl time.Duration) *CSRFTokenManager {
	return &CSRFTokenManager{
		tokens:   make(map[string]*csrfTokenEntry),
		tokenTTL: ttl,
	}
}

// Issue generates a fresh token for the client, replacing any previous one
func (m *CSRFTokenManager) Issue(clientID string) (string, error) {
	token, err := GenerateSecureRandom(csrfTokenBytes)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[clientID] = &csrfTokenEntry{
		token:  token,
		expiry: time.Now().Add(m.tokenTTL),
	}
	m.mu.Unlock()

	return token, nil
}

// Validate reports whether token is the client's current, unexpired token
func (m *CSRFTokenManager) Validate(clientID, token string) bool {
	m.mu.RLock()
	entry, exists := m.tokens[clientID]
	m.mu.RUnlock()

	if !exists || token == "" {
		return false
	}

	if time.Now().After(entry.expiry) {
		m.mu.Lock()
		if current, ok := m.tokens[clientID]; ok && current == entry {
			delete(m.tokens, clientID)
		}
		m.mu.Unlock()
		return false
	}

	return subtle.ConstantTimeCompare([]byte(entry.token), []byte(token)) == 1
}

// Revoke drops the client's token. Called on logout.
func (m *CSRFTokenManager) Revoke(clientID string) {
	m.mu.Lock()
	delete(m.tokens, clientID)
	m.mu.Unlock()
}

// Sweep removes expired tokens and returns how many were removed
func (m *CSRFTokenManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for clientID, entry := range m.tokens {
		if now.After(entry.expiry) {
			delete(m.tokens, clientID)
			removed++
		}
	}
	return removed
}
