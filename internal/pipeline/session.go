package pipeline

import (
	"sync"
	"time"

	"github.com/jimezsa/jobharvest/internal/identity"
)

// DefaultSessionTTL is how long a per-domain identity survives without
// traffic before a fresh one is minted.
const DefaultSessionTTL = 30 * time.Minute

type session struct {
	id       *identity.Identity
	lastUsed time.Time
}

// Sessions hands out one browser identity per domain. Reusing the same
// identity across a domain's requests keeps headers consistent within
// what looks like one visit; an idle session expires so the next pass
// arrives as a different visitor.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*session
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]*session{},
	}
}

// Identity returns the domain's current identity, minting a new one if
// none exists or the previous session went idle past the TTL.
func (s *Sessions) Identity(domain string) *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[domain]; ok && now.Sub(entry.lastUsed) <= s.ttl {
		entry.lastUsed = now
		return entry.id
	}

	entry := &session{id: identity.New(""), lastUsed: now}
	s.entries[domain] = entry
	return entry.id
}

// Active reports how many sessions are currently live.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for _, entry := range s.entries {
		if now.Sub(entry.lastUsed) <= s.ttl {
			count++
		}
	}
	return count
}

// SetClock overrides the session clock, for tests.
func (s *Sessions) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
