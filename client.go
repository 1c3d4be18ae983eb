package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "http://localhost:8008"
const defaultUserAgent = "talewright-sdk-go/" + Version

// Config wires authentication, base URL, logging and telemetry for the API client.
type Config struct {
	BaseURL string
	// TokenProvider supplies bearer tokens. When nil, AccessToken is used as
	// a static token.
	TokenProvider TokenProvider
	AccessToken   string
	HTTPClient    *http.Client
	Logger        *zerolog.Logger
	Telemetry     TelemetryHooks
	UserAgent     string
	// Retry applies to idempotent list calls only; streams never retry.
	Retry *RetryConfig
}

// Option customizes a Config.
type Option func(*Config)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) { c.BaseURL = baseURL }
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithTokenProvider sets the bearer token source.
func WithTokenProvider(p TokenProvider) Option {
	return func(c *Config) { c.TokenProvider = p }
}

// WithAccessToken uses a fixed bearer token.
func WithAccessToken(token string) Option {
	return func(c *Config) { c.AccessToken = token }
}

// WithLogger routes SDK logs to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) { c.Logger = &logger }
}

// WithTelemetry installs observability hooks.
func WithTelemetry(hooks TelemetryHooks) Option {
	return func(c *Config) { c.Telemetry = hooks }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// WithRetry sets the retry policy for idempotent list calls.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Config) { c.Retry = &cfg }
}

// Client provides high-level helpers for interacting with the Talewright API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	telemetry  telemetry
	userAgent  string
	retry      RetryConfig

	// Grouped service clients.
	Chats      *ChatsClient
	Documents  *DocumentsClient
	Characters *CharactersClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, ConfigError{Reason: err.Error()}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(defaultConnectTimeout)
	}
	tokens := cfg.TokenProvider
	if tokens == nil {
		if strings.TrimSpace(cfg.AccessToken) == "" {
			return nil, ConfigError{Reason: "token provider or access token required"}
		}
		tokens = StaticTokenProvider(cfg.AccessToken)
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "talewright-sdk").Logger()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retry := RetryConfig{MaxAttempts: 1}
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}
	client := &Client{
		baseURL:    normalized,
		httpClient: httpClient,
		tokens:     tokens,
		telemetry:  telemetry{hooks: cfg.Telemetry, logger: logger},
		userAgent:  ua,
		retry:      retry.normalized(),
	}
	client.Chats = &ChatsClient{client: client}
	client.Documents = &DocumentsClient{client: client}
	client.Characters = &CharactersClient{client: client}
	return client, nil
}

// NewClientWithTokenProvider builds a Client around provider.
func NewClientWithTokenProvider(provider TokenProvider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ConfigError{Reason: "token provider is nil"}
	}
	cfg := Config{TokenProvider: provider}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.TokenProvider = provider
	return NewClient(cfg)
}

// newHTTPClient has no overall timeout: streams stay open for as long as the
// server keeps writing.
func newHTTPClient(connectTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = 0
	return &http.Client{Transport: transport}
}

const defaultConnectTimeout = 10 * time.Second

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// newJSONRequest resolves a bearer token first so that a missing session
// fails before anything is built or sent.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	if payload == nil {
		return c.newRequest(ctx, method, path, nil, "")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.newRequest(ctx, method, path, bytes.NewReader(encoded), "application/json")
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	applyBearer(req, token)
	injectTraceparent(ctx, req)
	return req, nil
}

// do performs the round trip and reports it to telemetry. It does not look at
// the status code.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	ctx := req.Context()
	if c.telemetry.hooks.OnHTTPRequest != nil {
		c.telemetry.hooks.OnHTTPRequest(ctx, req)
	}
	c.telemetry.log(ctx, LogLevelInfo, "http_request", map[string]any{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if c.telemetry.hooks.OnHTTPResponse != nil {
		c.telemetry.hooks.OnHTTPResponse(ctx, req, resp, err, latency)
	}
	c.telemetry.metric(ctx, "sdk_http_request_latency_ms", float64(latency.Milliseconds()), map[string]string{
		"path": req.URL.Path,
	})
	if err != nil {
		return nil, TransportError{
			Kind:    classifyTransportErrorKind(err),
			Message: req.Method + " " + req.URL.Path + " failed",
			Cause:   err,
		}
	}
	return resp, nil
}

// send is do plus APIError decoding for non-2xx responses.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !statusOK(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func (c *Client) sendAndDecode(req *http.Request, out any) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func statusOK(code int) bool {
	return code >= 200 && code <= 299
}
