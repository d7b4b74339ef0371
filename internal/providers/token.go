// Package providers holds the HTTP clients for the external imagery and
// weather services, including the shared bearer-token session for the imagery
// provider.
package providers

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// refreshMargin is how long before expiry a cached token is treated as stale,
// so parallel field evaluations never race an expiring token.
const refreshMargin = 5 * time.Minute

// fetchTokenFunc obtains a fresh access token and its lifetime.
type fetchTokenFunc func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// tokenSession caches one bearer token behind an RWMutex: the hot path during
// parallel sweeps is a read lock, and only the goroutine that wins the write
// lock actually refreshes.
type tokenSession struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	fetch     fetchTokenFunc
	clock     clockwork.Clock
}

func newTokenSession(fetch fetchTokenFunc, clock clockwork.Clock) *tokenSession {
	return &tokenSession{fetch: fetch, clock: clock}
}

// Token returns the cached token, refreshing proactively once the remaining
// lifetime drops under the refresh margin.
func (s *tokenSession) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.fresh() {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another evaluation may have refreshed while we waited for the lock.
	if s.fresh() {
		return s.token, nil
	}

	token, expiresIn, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = s.clock.Now().Add(expiresIn)
	return token, nil
}

// Invalidate drops the cached token, forcing a refresh on the next call.
// Used after the provider rejects a request with 401.
func (s *tokenSession) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// fresh must be called with at least a read lock held.
func (s *tokenSession) fresh() bool {
	return s.token != "" && s.clock.Now().Before(s.expiresAt.Add(-refreshMargin))
}
