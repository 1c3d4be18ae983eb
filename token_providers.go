package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/talewright/talewright/sdk/go/headers"
)

const defaultTokenProviderRefreshSkew = 60 * time.Second

// Session is an access token plus the data needed to renew it.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"-"`
}

type tokenCache struct {
	mu      sync.Mutex
	session *Session
}

func (c *tokenCache) getReusable(skew time.Duration) (string, bool) {
	if c.session == nil || strings.TrimSpace(c.session.AccessToken) == "" || c.session.ExpiresAt.IsZero() {
		return "", false
	}
	if time.Until(c.session.ExpiresAt) <= skew {
		return "", false
	}
	return c.session.AccessToken, true
}

// SupabaseTokenProvider keeps a Supabase auth session fresh by exchanging
// its refresh token shortly before the access token expires. Safe for
// concurrent use; concurrent callers share one refresh.
type SupabaseTokenProvider struct {
	authURL     string
	anonKey     string
	httpClient  *http.Client
	refreshSkew time.Duration
	cache       tokenCache
}

// SupabaseTokenProviderConfig configures NewSupabaseTokenProvider.
type SupabaseTokenProviderConfig struct {
	// URL is the Supabase project URL, e.g. https://xyz.supabase.co.
	URL     string
	AnonKey string
	// Session seeds the provider. RefreshToken is required; an AccessToken
	// with a non-zero ExpiresAt is used until it nears expiry.
	Session     Session
	HTTPClient  *http.Client
	RefreshSkew time.Duration
}

// NewSupabaseTokenProvider validates cfg and returns a provider.
func NewSupabaseTokenProvider(cfg SupabaseTokenProviderConfig) (*SupabaseTokenProvider, error) {
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, ConfigError{Reason: "supabase anon key is required"}
	}
	if strings.TrimSpace(cfg.Session.RefreshToken) == "" {
		return nil, ConfigError{Reason: "supabase refresh token is required"}
	}
	normalized, err := normalizeBaseURL(cfg.URL)
	if err != nil {
		return nil, ConfigError{Reason: "supabase " + err.Error()}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	skew := cfg.RefreshSkew
	if skew <= 0 {
		skew = defaultTokenProviderRefreshSkew
	}
	session := cfg.Session
	return &SupabaseTokenProvider{
		authURL:     normalized + "/auth/v1/token?grant_type=refresh_token",
		anonKey:     cfg.AnonKey,
		httpClient:  httpClient,
		refreshSkew: skew,
		cache:       tokenCache{session: &session},
	}, nil
}

// Token implements TokenProvider. A rejected refresh token yields an error
// wrapping ErrNotAuthenticated.
func (p *SupabaseTokenProvider) Token(ctx context.Context) (string, error) {
	if p == nil {
		return "", errors.New("supabase token provider is nil")
	}
	p.cache.mu.Lock()
	defer p.cache.mu.Unlock()
	if tok, ok := p.cache.getReusable(p.refreshSkew); ok {
		return tok, nil
	}
	session, err := p.refresh(ctx, p.cache.session.RefreshToken)
	if err != nil {
		return "", err
	}
	p.cache.session = &session
	return session.AccessToken, nil
}

// Session returns a copy of the current session, e.g. to persist the rotated
// refresh token.
func (p *SupabaseTokenProvider) Session() Session {
	p.cache.mu.Lock()
	defer p.cache.mu.Unlock()
	return *p.cache.session
}

func (p *SupabaseTokenProvider) refresh(ctx context.Context, refreshToken string) (Session, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headers.SupabaseAPIKey, p.anonKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Session{}, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: "supabase token refresh failed",
			Cause:   err,
		}
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return Session{}, errors.Join(ErrNotAuthenticated, decodeAPIError(resp))
	}
	if !statusOK(resp.StatusCode) {
		return Session{}, decodeAPIError(resp)
	}
	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		ExpiresAt    int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return Session{}, ErrNotAuthenticated
	}
	session := Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	switch {
	case payload.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(payload.ExpiresAt, 0)
	case payload.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	if session.RefreshToken == "" {
		session.RefreshToken = refreshToken
	}
	return session, nil
}
