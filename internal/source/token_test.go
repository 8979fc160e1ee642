package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/pkg/config"
)

func newTestTokenCache(t *testing.T, handler http.HandlerFunc) (*TokenCache, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.EbayConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     server.URL,
		Scope:        "https://api.ebay.com/oauth/api_scope",
		TokenTTL:     time.Hour,
		Timeout:      5 * time.Second,
	}
	return NewTokenCache(cfg, zap.NewNop()), server
}

func TestTokenCacheExchangeAndReuse(t *testing.T) {
	var calls atomic.Int32
	tc, _ := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		require.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":7200}`))
	})

	token, err := tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)

	// Second call is served from cache.
	token, err = tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenCacheRefreshesAfterExpiry(t *testing.T) {
	var calls atomic.Int32
	tc, _ := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok-abc","expires_in":7200}`))
	})

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tc.now = func() time.Time { return now }

	_, err := tc.Token(context.Background())
	require.NoError(t, err)

	// Jump past the cached expiry: next call must exchange again.
	now = now.Add(2 * time.Hour)
	_, err = tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTokenCacheCapsTTLBelowVendorValidity(t *testing.T) {
	tc, _ := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		// Vendor grants less than the configured 1h cache window.
		w.Write([]byte(`{"access_token":"tok-short","expires_in":600}`))
	})

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tc.now = func() time.Time { return now }

	_, err := tc.Token(context.Background())
	require.NoError(t, err)

	cached := tc.current.Load()
	require.NotNil(t, cached)
	assert.True(t, cached.ExpiresAt.Before(now.Add(600*time.Second)),
		"cached expiry must stay under the vendor validity")
}

func TestTokenCacheFailureLeavesCacheUntouched(t *testing.T) {
	var failing atomic.Bool
	tc, _ := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Write([]byte(`{"access_token":"tok-abc","expires_in":7200}`))
	})

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tc.now = func() time.Time { return now }

	_, err := tc.Token(context.Background())
	require.NoError(t, err)

	// Expire the cached token, then make the vendor reject the refresh.
	now = now.Add(2 * time.Hour)
	failing.Store(true)

	_, err = tc.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailure)

	// The stale entry is still present (and still expired) rather than
	// clobbered by the failed exchange.
	cached := tc.current.Load()
	require.NotNil(t, cached)
	assert.Equal(t, "tok-abc", cached.Value)
}

func TestTokenCacheRejectsEmptyToken(t *testing.T) {
	tc, _ := newTestTokenCache(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"Bearer","expires_in":7200}`))
	})

	_, err := tc.Token(context.Background())
	assert.ErrorIs(t, err, ErrAuthFailure)
}
