// Package sdk is the Go client for the Talewright storytelling API: chat and
// document management plus the two server-sent event streams (character
// chat replies and knowledge-extraction progress).
package sdk

import (
	"context"
	"net/http"
	"strings"

	"github.com/talewright/talewright/sdk/go/headers"
)

// TokenProvider supplies the bearer token for each request. It is consulted
// once per call, before anything is sent.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticTokenProvider always returns the same access token.
type StaticTokenProvider string

// Token implements TokenProvider. An empty token means no session.
func (s StaticTokenProvider) Token(context.Context) (string, error) {
	tok := normalizeBearer(string(s))
	if tok == "" {
		return "", ErrNotAuthenticated
	}
	return tok, nil
}

// bearerToken resolves a token from the provider and wraps every failure in
// AuthError.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", AuthError{Cause: ErrNotAuthenticated}
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return "", AuthError{Cause: err}
	}
	tok = normalizeBearer(tok)
	if tok == "" {
		return "", AuthError{Cause: ErrNotAuthenticated}
	}
	return tok, nil
}

func applyBearer(req *http.Request, token string) {
	if token == "" {
		return
	}
	req.Header.Set(headers.Authorization, "Bearer "+token)
}

// normalizeBearer strips whitespace and a leading "Bearer " so callers can
// pass either form.
func normalizeBearer(token string) string {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
