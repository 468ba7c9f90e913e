package auth

import (
	"sync"
	"time"
)

// RevocationStore remembers session tokens that were revoked before their
// natural expiry. Entries expire on their own deadline and are removed lazily
// on lookup or in bulk by Sweep. All operations are safe for concurrent use
// and lock only the touched entry.
//
// A token that was never revoked is reported as not revoked. That is proof of
// non-revocation only, not of validity.
type RevocationStore struct {
	entries sync.Map // token -> time.Time
	now     func() time.Time
}

// NewRevocationStore returns an empty store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{now: time.Now}
}

// Revoke marks token as revoked until expiresAt. When the token is already
// present the later expiry is kept.
func (s *RevocationStore) Revoke(token string, expiresAt time.Time) {
	for {
		prev, loaded := s.entries.LoadOrStore(token, expiresAt)
		if !loaded {
			return
		}
		if !expiresAt.After(prev.(time.Time)) {
			return
		}
		if s.entries.CompareAndSwap(token, prev, expiresAt) {
			return
		}
	}
}

// IsRevoked reports whether token has a live revocation entry.
func (s *RevocationStore) IsRevoked(token string) bool {
	val, ok := s.entries.Load(token)
	if !ok {
		return false
	}
	if !s.now().After(val.(time.Time)) {
		return true
	}
	// Only drop the entry we saw; a concurrent Revoke may have extended it.
	s.entries.CompareAndDelete(token, val)
	return false
}

// Sweep removes every expired entry and returns how many were removed.
func (s *RevocationStore) Sweep() int {
	now := s.now()
	removed := 0
	s.entries.Range(func(key, val any) bool {
		if now.After(val.(time.Time)) && s.entries.CompareAndDelete(key, val) {
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of entries, live or not yet swept.
func (s *RevocationStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
