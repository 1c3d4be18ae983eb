package sdk

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/talewright/talewright/sdk/go/testutil"
)

func TestBearerTokenDuplication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer my-secret-token" {
			t.Errorf("Expected 'Bearer my-secret-token', got '%s'", auth)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	for name, token := range map[string]string{
		"CleanToken":      "my-secret-token",
		"TokenWithPrefix": "Bearer my-secret-token",
	} {
		t.Run(name, func(t *testing.T) {
			client, err := NewClient(Config{
				BaseURL:     server.URL,
				AccessToken: token,
			})
			require.NoError(t, err)
			req, err := client.newJSONRequest(context.Background(), http.MethodGet, "/foo", nil)
			require.NoError(t, err)
			resp, err := client.send(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
		})
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{})
	var cfgErr ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewClient(Config{BaseURL: "localhost:8008", AccessToken: "t"})
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewClientWithTokenProvider(nil)
	require.ErrorAs(t, err, &cfgErr)

	client, err := NewClient(Config{AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, client.baseURL)

	client, err = NewClient(Config{BaseURL: "https://api.talewright.test/v1/", AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.talewright.test/v1/chat/stream", client.buildURL("chat/stream"))
}

func TestClientInjectsTraceparent(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var seen []*http.Request
	client := newChunkedClient(t, sseFrame("done", `{"chat_id":"c"}`), nil, &seen)
	require.NoError(t, client.Chats.Stream(ctx, chatReq, ChatHandlers{}))
	require.Len(t, seen, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", seen[0].Header.Get("traceparent"))
	assert.Equal(t, defaultUserAgent, seen[0].Header.Get("User-Agent"))
}

func TestTelemetryHooksObserveStream(t *testing.T) {
	srv := testutil.NewSSEServer([]testutil.SSEStep{
		{Chunk: sseFrame("token", `{"text":"a"}`)},
		{Chunk: "data: {\"ping\":true}\n\n"},
		{Chunk: sseFrame("done", `{"chat_id":"c"}`)},
	}, testutil.SSEServerConfig{})
	defer srv.Close()

	var (
		mu       sync.Mutex
		events   []string
		messages []string
		metrics  = map[string]int{}
		requests int
	)
	hooks := TelemetryHooks{
		OnHTTPRequest: func(context.Context, *http.Request) {
			mu.Lock()
			requests++
			mu.Unlock()
		},
		OnStreamEvent: func(_ context.Context, ev StreamEvent) {
			mu.Lock()
			events = append(events, string(ev.Stream)+":"+ev.EventName())
			mu.Unlock()
		},
		OnLogEntry: func(_ context.Context, entry LogEntry) {
			mu.Lock()
			messages = append(messages, entry.Message)
			mu.Unlock()
		},
		OnMetric: func(_ context.Context, m Metric) {
			mu.Lock()
			metrics[m.Name]++
			mu.Unlock()
		},
	}

	var logs bytes.Buffer
	client := newTestClient(t, srv, WithTelemetry(hooks), WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	require.NoError(t, client.Chats.Stream(context.Background(), chatReq, ChatHandlers{}))

	assert.Equal(t, 1, requests)
	assert.Equal(t, []string{"chat:token", "chat:message", "chat:done"}, events)
	assert.Equal(t, []string{"http_request", "stream_closed"}, messages)
	assert.Equal(t, 3, metrics["sdk_stream_events_total"])
	assert.Equal(t, 1, metrics["sdk_http_request_latency_ms"])
	assert.Contains(t, logs.String(), `"component":"talewright-sdk"`)
	assert.Contains(t, logs.String(), `"message":"stream_closed"`)
}

func TestHTTPErrorIsLogged(t *testing.T) {
	srv := testutil.NewSSEServer(nil, testutil.SSEServerConfig{Status: http.StatusInternalServerError})
	defer srv.Close()

	var logs bytes.Buffer
	var tr chatTrace
	client := newTestClient(t, srv, WithLogger(zerolog.New(&logs)))
	require.NoError(t, client.Chats.Stream(context.Background(), chatReq, tr.handlers()))
	assert.Equal(t, []string{"HTTP 500"}, tr.errors)
	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Contains(t, logs.String(), `"status":500`)
}
