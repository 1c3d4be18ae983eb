package sdk

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/talewright/talewright/sdk/go/testutil"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	client, err := NewClientWithTokenProvider(StaticTokenProvider("test-token"), all...)
	if err != nil {
		t.Fatalf("new test client: %v", err)
	}
	return client
}

// roundTripFunc lets tests hand the client a response body with an exact
// read pattern, bypassing the network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newChunkedClient returns a client whose every request is answered with a
// 200 text/event-stream response replaying body through the given split
// sizes. Captured requests are appended to *seen when seen is non-nil.
func newChunkedClient(t *testing.T, body string, sizes []int, seen *[]*http.Request) *Client {
	t.Helper()
	var mu sync.Mutex
	hc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if seen != nil {
			mu.Lock()
			*seen = append(*seen, req)
			mu.Unlock()
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       testutil.NewChunkedReader([]byte(body), sizes...),
			Request:    req,
		}, nil
	})}
	client, err := NewClient(Config{
		BaseURL:       "http://api.test",
		HTTPClient:    hc,
		TokenProvider: StaticTokenProvider("test-token"),
	})
	if err != nil {
		t.Fatalf("new chunked client: %v", err)
	}
	return client
}

func statusResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// chatTrace records chat callbacks as strings in call order.
type chatTrace struct {
	calls     []string
	tokens    []TokenEvent
	citations []CitationEvent
	gaps      []GapEvent
	dones     []DoneEvent
	errors    []string
}

func (tr *chatTrace) handlers() ChatHandlers {
	return ChatHandlers{
		OnToken: func(e TokenEvent) {
			tr.tokens = append(tr.tokens, e)
			tr.calls = append(tr.calls, "token:"+e.Text)
		},
		OnCitation: func(e CitationEvent) {
			tr.citations = append(tr.citations, e)
			tr.calls = append(tr.calls, "citation:"+e.Source)
		},
		OnGap: func(e GapEvent) {
			tr.gaps = append(tr.gaps, e)
			tr.calls = append(tr.calls, "gap:"+e.Attribute)
		},
		OnDone: func(e DoneEvent) {
			tr.dones = append(tr.dones, e)
			tr.calls = append(tr.calls, "done:"+e.ChatID)
		},
		OnError: func(msg string) {
			tr.errors = append(tr.errors, msg)
			tr.calls = append(tr.calls, "error:"+msg)
		},
	}
}

func sseFrame(event, data string) string {
	return "event: " + event + "\ndata: " + data + "\n\n"
}
