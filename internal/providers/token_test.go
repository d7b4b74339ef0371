package providers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSession_CachesUntilRefreshMargin(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetches := 0
	session := newTokenSession(func(context.Context) (string, time.Duration, error) {
		fetches++
		return fmt.Sprintf("token-%d", fetches), time.Hour, nil
	}, clock)

	token, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// 6 minutes of lifetime left: still outside the 5-minute margin.
	clock.Advance(54 * time.Minute)
	token, err = session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, fetches)

	// 4 minutes left: proactive refresh kicks in before actual expiry.
	clock.Advance(2 * time.Minute)
	token, err = session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, fetches)
}

func TestTokenSession_InvalidateForcesRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetches := 0
	session := newTokenSession(func(context.Context) (string, time.Duration, error) {
		fetches++
		return fmt.Sprintf("token-%d", fetches), time.Hour, nil
	}, clock)

	_, err := session.Token(context.Background())
	require.NoError(t, err)

	session.Invalidate()
	token, err := session.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestTokenSession_FetchErrorSurfaces(t *testing.T) {
	session := newTokenSession(func(context.Context) (string, time.Duration, error) {
		return "", 0, fmt.Errorf("auth server down")
	}, clockwork.NewFakeClock())

	_, err := session.Token(context.Background())
	assert.ErrorContains(t, err, "auth server down")
}

func TestTokenSession_ConcurrentReadersRefreshOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var mu sync.Mutex
	fetches := 0
	session := newTokenSession(func(context.Context) (string, time.Duration, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		return "token", time.Hour, nil
	}, clock)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := session.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "token", token)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetches, "only the first writer may hit the token endpoint")
}
