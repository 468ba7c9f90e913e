package auth

import (
	"sync"
	"time"
)

// DefaultActiveTokenTTL is how long an issued token stays registered.
const DefaultActiveTokenTTL = 30 * time.Minute

type activeToken struct {
	token     string
	expiresAt time.Time
}

// ActiveTokenStore tracks the most recently issued token per identity (email).
// Persisting a new token for an identity supersedes the previous one without
// revoking it.
type ActiveTokenStore struct {
	entries sync.Map // identity -> activeToken
	ttl     time.Duration
	now     func() time.Time
}

// NewActiveTokenStore returns an empty store whose entries live for ttl.
func NewActiveTokenStore(ttl time.Duration) *ActiveTokenStore {
	if ttl <= 0 {
		ttl = DefaultActiveTokenTTL
	}
	return &ActiveTokenStore{ttl: ttl, now: time.Now}
}

// Persist registers token as the current one for identity.
func (s *ActiveTokenStore) Persist(identity, token string) {
	s.entries.Store(identity, activeToken{token: token, expiresAt: s.now().Add(s.ttl)})
}

// Swap registers token as the current one for identity and returns the live
// token it replaced, if any. It never revokes the replaced token.
func (s *ActiveTokenStore) Swap(identity, token string) (string, bool) {
	now := s.now()
	prev, loaded := s.entries.Swap(identity, activeToken{token: token, expiresAt: now.Add(s.ttl)})
	if !loaded {
		return "", false
	}
	entry := prev.(activeToken)
	if now.After(entry.expiresAt) || entry.token == token {
		return "", false
	}
	return entry.token, true
}

// Get returns the current token for identity. Expired entries are evicted
// and reported as absent.
func (s *ActiveTokenStore) Get(identity string) (string, bool) {
	val, ok := s.entries.Load(identity)
	if !ok {
		return "", false
	}
	entry := val.(activeToken)
	if s.now().After(entry.expiresAt) {
		s.entries.CompareAndDelete(identity, val)
		return "", false
	}
	return entry.token, true
}

// Remove evicts the entry for identity.
func (s *ActiveTokenStore) Remove(identity string) {
	s.entries.Delete(identity)
}

// RemoveToken evicts the entry for identity only while it still names token,
// so ending an old session never drops a newer one.
func (s *ActiveTokenStore) RemoveToken(identity, token string) bool {
	val, ok := s.entries.Load(identity)
	if !ok || val.(activeToken).token != token {
		return false
	}
	return s.entries.CompareAndDelete(identity, val)
}

// Sweep removes every expired entry and returns how many were removed.
func (s *ActiveTokenStore) Sweep() int {
	now := s.now()
	removed := 0
	s.entries.Range(func(key, val any) bool {
		if now.After(val.(activeToken).expiresAt) && s.entries.CompareAndDelete(key, val) {
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of entries, live or not yet swept.
func (s *ActiveTokenStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
