package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Zohair23/price-comparison-engine/pkg/config"
	"github.com/Zohair23/price-comparison-engine/prometheus"
)

// Token is an opaque bearer credential with an absolute expiry
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenCache lazily exchanges client credentials for a bearer token and
// caches it until expiry. The cached entry is stored behind an atomic
// pointer so a refresh replaces it in one step; concurrent callers during a
// refresh may each perform a redundant exchange, which is accepted since
// refreshes are hour-scale relative to call volume. A failed exchange never
// clobbers the cached entry.
type TokenCache struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	ttl          time.Duration
	client       *http.Client
	log          *zap.Logger

	current atomic.Pointer[Token]
	now     func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewTokenCache creates a token cache for the primary source
func NewTokenCache(cfg *config.EbayConfig, log *zap.Logger) *TokenCache {
	return &TokenCache{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        cfg.Scope,
		ttl:          cfg.TokenTTL,
		client:       &http.Client{Timeout: cfg.Timeout},
		log:          log,
		now:          time.Now,
	}
}

// Token returns a valid bearer token, exchanging credentials when the
// cached one has expired
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	if cached := tc.current.Load(); cached != nil && tc.now().Before(cached.ExpiresAt) {
		return cached.Value, nil
	}
	return tc.refresh(ctx)
}

func (tc *TokenCache) refresh(ctx context.Context) (string, error) {
	start := tc.now()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", tc.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+tc.basicAuth())

	resp, err := tc.client.Do(req)
	if err != nil {
		tc.log.Warn("Token exchange failed",
			zap.String("source", string(SourceEbay)),
			zap.Duration("latency", tc.now().Sub(start)),
			zap.Error(err))
		prometheus.RecordTokenRefresh("error")
		return "", fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		tc.log.Warn("Token exchange rejected",
			zap.String("source", string(SourceEbay)),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", tc.now().Sub(start)))
		prometheus.RecordTokenRefresh("rejected")
		return "", fmt.Errorf("%w: status %d", ErrAuthFailure, resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailure)
	}

	// Cache for less than the vendor's stated validity so a served token
	// never expires mid-call.
	ttl := tc.ttl
	if vendor := time.Duration(tokenResp.ExpiresIn) * time.Second; vendor > 0 && vendor < ttl {
		ttl = vendor / 2
	}

	token := &Token{Value: tokenResp.AccessToken, ExpiresAt: tc.now().Add(ttl)}
	tc.current.Store(token)
	prometheus.RecordTokenRefresh("ok")

	tc.log.Info("Token refreshed",
		zap.String("source", string(SourceEbay)),
		zap.Time("expires_at", token.ExpiresAt),
		zap.Duration("latency", tc.now().Sub(start)))

	return token.Value, nil
}

func (tc *TokenCache) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(tc.clientID + ":" + tc.clientSecret))
}
