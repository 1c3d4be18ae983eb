// Package testutil provides helpers for SDK tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"
)

// SSEStep describes a raw chunk to write with an optional delay. Chunks are
// written verbatim so tests control where frame boundaries fall.
type SSEStep struct {
	Delay time.Duration
	Chunk string
}

// SSEServerConfig configures the SSE test server.
type SSEServerConfig struct {
	Status     int
	Body       string
	Headers    map[string]string
	FinalDelay time.Duration
	// OnRequest, when set, sees every request before the response is written.
	OnRequest func(r *http.Request)
}

// NewSSEServer returns an httptest server that flushes each step as its own
// write. A non-2xx Status writes Body instead of the steps.
func NewSSEServer(steps []SSEStep, cfg SSEServerConfig) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.OnRequest != nil {
			cfg.OnRequest(r)
		}
		status := cfg.Status
		if status == 0 {
			status = http.StatusOK
		}
		for k, v := range cfg.Headers {
			w.Header().Set(k, v)
		}
		if status < 200 || status > 299 {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, cfg.Body)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		flusher, _ := w.(http.Flusher)
		for _, step := range steps {
			if step.Delay > 0 {
				time.Sleep(step.Delay)
			}
			_, _ = io.WriteString(w, step.Chunk)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if cfg.FinalDelay > 0 {
			time.Sleep(cfg.FinalDelay)
		}
	}))
}

// ChunkedReader replays data split at the given sizes, one chunk per Read.
// Sizes beyond the data are ignored; data left after the last size is
// returned in one final chunk. A zero size produces an empty read.
type ChunkedReader struct {
	data  []byte
	sizes []int
	reads int
}

// NewChunkedReader returns a reader over data with the given split pattern.
func NewChunkedReader(data []byte, sizes ...int) *ChunkedReader {
	return &ChunkedReader{data: data, sizes: sizes}
}

// SplitAt returns a reader that delivers data in two reads split at offset.
func SplitAt(data []byte, offset int) *ChunkedReader {
	return NewChunkedReader(data, offset)
}

// ByteAtATime returns a reader that delivers data one byte per read.
func ByteAtATime(data []byte) *ChunkedReader {
	sizes := make([]int, len(data))
	for i := range sizes {
		sizes[i] = 1
	}
	return NewChunkedReader(data, sizes...)
}

// Read implements io.Reader.
func (c *ChunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := len(c.data)
	if c.reads < len(c.sizes) {
		n = c.sizes[c.reads]
		if n > len(c.data) {
			n = len(c.data)
		}
	}
	c.reads++
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

// Close implements io.Closer.
func (c *ChunkedReader) Close() error { return nil }
