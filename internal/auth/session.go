package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions is an in-memory opaque-token session store. Tokens are random
// uuids handed out as cookies; the server side maps them to user ids with a
// TTL. A janitor goroutine sweeps expired entries.
type Sessions struct {
	mu           sync.Mutex
	ttl          time.Duration
	entries      map[string]sessionEntry
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type sessionEntry struct {
	userID    int64
	expiresAt time.Time
}

// NewSessions creates the session store and starts its cleanup loop.
func NewSessions(ttl time.Duration) *Sessions {
	s := &Sessions{
		ttl:         ttl,
		entries:     make(map[string]sessionEntry),
		stopCleanup: make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

// Create opens a session for the user and returns the opaque token.
func (s *Sessions) Create(userID int64) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = sessionEntry{
		userID:    userID,
		expiresAt: time.Now().Add(s.ttl),
	}
	return token
}

// Lookup resolves a token to a user id. Expired sessions are treated as
// absent and removed eagerly.
func (s *Sessions) Lookup(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, token)
		return 0, false
	}
	return entry.userID, true
}

// TTL reports the configured session lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Destroy ends the session. Destroying an unknown token is a no-op.
func (s *Sessions) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
}

// Len returns the number of live entries (expired ones may still be
// counted until the next sweep).
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Sessions) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
		}
	}
}

// Stop shuts the cleanup goroutine down.
func (s *Sessions) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}
