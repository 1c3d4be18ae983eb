package sdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/talewright/talewright/sdk/go/headers"
	"github.com/talewright/talewright/sdk/go/sse"
)

// StreamOption customizes a single streaming call.
type StreamOption func(*streamCallOptions)

type streamCallOptions struct {
	headers   http.Header
	requestID string
	timeouts  StreamTimeouts
	readSize  int
}

// WithRequestID sets the X-Request-Id header. Streams without one get a
// random UUID.
func WithRequestID(requestID string) StreamOption {
	return func(opts *streamCallOptions) {
		opts.requestID = strings.TrimSpace(requestID)
	}
}

// WithHeader attaches an arbitrary header to the streaming request.
func WithHeader(key, value string) StreamOption {
	return func(opts *streamCallOptions) {
		if strings.TrimSpace(key) == "" || strings.TrimSpace(value) == "" {
			return
		}
		if opts.headers == nil {
			opts.headers = make(http.Header)
		}
		opts.headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
}

// WithStreamTimeouts bounds the stream; see StreamTimeouts.
func WithStreamTimeouts(timeouts StreamTimeouts) StreamOption {
	return func(opts *streamCallOptions) {
		opts.timeouts = timeouts
	}
}

// WithReadSize sets how many bytes are requested from the body per read.
func WithReadSize(n int) StreamOption {
	return func(opts *streamCallOptions) {
		opts.readSize = n
	}
}

func applyStreamOptions(options []StreamOption) streamCallOptions {
	var opts streamCallOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if opts.requestID == "" {
		opts.requestID = uuid.NewString()
	}
	return opts
}

// streamCall describes one of the two event-stream endpoints.
type streamCall struct {
	kind    StreamKind
	path    string
	payload any
	// onStatus receives a non-2xx status. body is only read when
	// readErrorBody is set.
	onStatus      func(status int, body string)
	readErrorBody bool
	// dispatch is called once per frame that carries data, in order.
	dispatch func(ev sse.Event) error
}

// streamSSE posts the payload and feeds the response body through the frame
// reader until EOF. A non-2xx status is reported through onStatus and the
// call returns nil. Terminal events do not end the loop; only EOF does.
func (c *Client) streamSSE(ctx context.Context, call streamCall, options []StreamOption) error {
	opts := applyStreamOptions(options)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The token is resolved before the timeouts start.
	req, err := c.newJSONRequest(ctx, http.MethodPost, call.path, call.payload)
	if err != nil {
		return err
	}
	monitor := newStreamTimeoutMonitor(ctx, opts.timeouts, cancel)
	monitor.Start()
	defer monitor.Stop()
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(headers.RequestID, opts.requestID)
	for k, vals := range opts.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	logFields := func(extra map[string]any) map[string]any {
		fields := map[string]any{
			"stream":     string(call.kind),
			"request_id": opts.requestID,
		}
		for k, v := range extra {
			fields[k] = v
		}
		return fields
	}

	resp, err := c.do(req)
	if err != nil {
		if timeoutErr := monitor.TimeoutErr(); timeoutErr != nil {
			return timeoutErr
		}
		return err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()

	if !statusOK(resp.StatusCode) {
		var body string
		if call.readErrorBody {
			data, _ := io.ReadAll(resp.Body)
			body = string(data)
		}
		c.telemetry.log(ctx, LogLevelError, "stream_http_error", logFields(map[string]any{
			"status": resp.StatusCode,
		}))
		call.onStatus(resp.StatusCode, body)
		return nil
	}

	reader := sse.NewReaderSize(&activityReader{r: resp.Body, monitor: monitor}, opts.readSize)
	frames := 0
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			c.telemetry.log(ctx, LogLevelDebug, "stream_closed", logFields(map[string]any{
				"frames": frames,
				"reads":  reader.Reads,
			}))
			return nil
		}
		if err != nil {
			return c.streamReadError(ctx, monitor, call.kind, err)
		}

		ev, ok, err := sse.ParseFrame(frame)
		if err != nil {
			var malformed *sse.MalformedDataError
			name := ""
			if errors.As(err, &malformed) {
				name = malformed.Event
			}
			c.telemetry.log(ctx, LogLevelError, "stream_protocol_error", logFields(map[string]any{
				"event": name,
				"error": err.Error(),
			}))
			return ProtocolError{Stream: string(call.kind), Event: name, Cause: err}
		}
		if !ok {
			continue
		}
		monitor.SignalFirstEvent()
		frames++
		c.telemetry.streamEvent(ctx, StreamEvent{Stream: call.kind, Name: ev.Name, Data: ev.Data})

		if err := call.dispatch(ev); err != nil {
			c.telemetry.log(ctx, LogLevelError, "stream_protocol_error", logFields(map[string]any{
				"event": ev.Name,
				"error": err.Error(),
			}))
			return ProtocolError{Stream: string(call.kind), Event: ev.Name, Cause: err}
		}
	}
}

func (c *Client) streamReadError(ctx context.Context, monitor *streamTimeoutMonitor, kind StreamKind, err error) error {
	if timeoutErr := monitor.TimeoutErr(); timeoutErr != nil {
		return timeoutErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return TransportError{
		Kind:    classifyTransportErrorKind(err),
		Message: string(kind) + " stream read failed",
		Cause:   err,
	}
}

// activityReader resets the idle timer whenever the body yields data.
type activityReader struct {
	r       io.Reader
	monitor *streamTimeoutMonitor
}

func (a *activityReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if n > 0 {
		a.monitor.SignalActivity()
	}
	return n, err
}
