package sdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/talewright/talewright/sdk/go/routes"
)

// MockClient provides an in-memory client for unit tests without hitting the
// API. Queued bodies are replayed through the real frame reader and
// dispatchers, so handlers see exactly what a live stream would produce.
type MockClient struct {
	*Client
	transport *mockTransport
}

// MockClientError is returned when a mock client is used without configuration.
type MockClientError struct {
	Reason string
}

func (e MockClientError) Error() string { return "mock client: " + e.Reason }

// MockEvent is one frame of a queued stream.
type MockEvent struct {
	Name string
	Data any
}

type mockResult struct {
	status int
	body   string
	err    error
}

type mockTransport struct {
	mu     sync.Mutex
	queues map[string][]mockResult
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	transport := &mockTransport{queues: map[string][]mockResult{}}
	client, err := NewClient(Config{
		BaseURL:       "http://mock.talewright.local",
		TokenProvider: StaticTokenProvider("mock-token"),
		HTTPClient:    &http.Client{Transport: transport},
	})
	if err != nil {
		panic(err)
	}
	return &MockClient{Client: client, transport: transport}
}

// WithChatStream enqueues events for the next Chats.Stream call.
func (c *MockClient) WithChatStream(events ...MockEvent) *MockClient {
	c.transport.enqueue(routes.ChatStream, mockResult{status: http.StatusOK, body: encodeMockEvents(events)})
	return c
}

// WithExtractionStream enqueues events for the next Documents.Extract call on
// documentID.
func (c *MockClient) WithExtractionStream(documentID string, events ...MockEvent) *MockClient {
	path := routes.Expand(routes.DocumentExtract, "document_id", documentID)
	c.transport.enqueue(path, mockResult{status: http.StatusOK, body: encodeMockEvents(events)})
	return c
}

// WithRawStream enqueues a verbatim event-stream body for path.
func (c *MockClient) WithRawStream(path, body string) *MockClient {
	c.transport.enqueue(path, mockResult{status: http.StatusOK, body: body})
	return c
}

// WithStatus enqueues a non-2xx response for path.
func (c *MockClient) WithStatus(path string, status int, body string) *MockClient {
	c.transport.enqueue(path, mockResult{status: status, body: body})
	return c
}

// WithTransportError makes the next request to path fail before a response.
func (c *MockClient) WithTransportError(path string, err error) *MockClient {
	c.transport.enqueue(path, mockResult{err: err})
	return c
}

func encodeMockEvents(events []MockEvent) string {
	var b strings.Builder
	for _, ev := range events {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			panic(fmt.Sprintf("mock client: encode %s: %v", ev.Name, err))
		}
		if ev.Name != "" {
			b.WriteString("event: " + ev.Name + "\n")
		}
		b.WriteString("data: ")
		b.Write(data)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (t *mockTransport) enqueue(path string, res mockResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queues[path] = append(t.queues[path], res)
}

func (t *mockTransport) dequeue(path string) (mockResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	queue := t.queues[path]
	if len(queue) == 0 {
		return mockResult{}, MockClientError{Reason: "no response configured for " + path}
	}
	t.queues[path] = queue[1:]
	return queue[0], nil
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}
	res, err := t.dequeue(req.URL.EscapedPath())
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		return nil, res.err
	}
	contentType := "text/event-stream"
	if !statusOK(res.status) {
		contentType = "text/plain; charset=utf-8"
	}
	return &http.Response{
		StatusCode: res.status,
		Status:     fmt.Sprintf("%d %s", res.status, http.StatusText(res.status)),
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(res.body)),
		Request:    req,
	}, nil
}
