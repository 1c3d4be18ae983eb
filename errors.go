package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrNotAuthenticated is wrapped by AuthError when no session is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// ConfigError reports an invalid client configuration.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return "sdk: invalid config: " + e.Reason
}

// AuthError is returned before any request is sent when the token provider
// cannot supply a bearer token.
type AuthError struct {
	Cause error
}

func (e AuthError) Error() string {
	if e.Cause == nil {
		return "sdk: " + ErrNotAuthenticated.Error()
	}
	return "sdk: " + e.Cause.Error()
}

func (e AuthError) Unwrap() error { return e.Cause }

// TransportErrorKind classifies network failures.
type TransportErrorKind string

const (
	TransportErrorTimeout TransportErrorKind = "timeout"
	TransportErrorConnect TransportErrorKind = "connect"
	TransportErrorRequest TransportErrorKind = "request"
	TransportErrorOther   TransportErrorKind = "other"
)

// TransportError reports a failed round trip or a body read that broke off
// mid-stream.
type TransportError struct {
	Kind    TransportErrorKind
	Message string
	Cause   error
}

func (e TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("sdk: %s (%s)", e.Message, e.Kind)
	}
	return fmt.Sprintf("sdk: %s (%s): %v", e.Message, e.Kind, e.Cause)
}

func (e TransportError) Unwrap() error { return e.Cause }

func classifyTransportErrorKind(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportErrorTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return TransportErrorConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportErrorConnect
	}
	if errors.Is(err, context.Canceled) {
		return TransportErrorRequest
	}
	return TransportErrorOther
}

// ProtocolError reports a frame the client could not decode. The stream is
// abandoned when one occurs.
type ProtocolError struct {
	Stream string
	Event  string
	Cause  error
}

func (e ProtocolError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("sdk: %s stream protocol error: %v", e.Stream, e.Cause)
	}
	return fmt.Sprintf("sdk: %s stream protocol error on %q: %v", e.Stream, e.Event, e.Cause)
}

func (e ProtocolError) Unwrap() error { return e.Cause }

// StreamTimeoutKind names the timeout that fired.
type StreamTimeoutKind string

const (
	StreamTimeoutFirstEvent StreamTimeoutKind = "first_event"
	StreamTimeoutIdle       StreamTimeoutKind = "idle"
	StreamTimeoutTotal      StreamTimeoutKind = "total"
)

// StreamTimeoutError is returned when a configured stream timeout elapses.
type StreamTimeoutError struct {
	Kind    StreamTimeoutKind
	Timeout time.Duration
}

func (e StreamTimeoutError) Error() string {
	return fmt.Sprintf("sdk: stream %s timeout after %s", e.Kind, e.Timeout)
}

// APIError captures a non-2xx response from a non-streaming endpoint.
type APIError struct {
	Status  int
	Message string
	// Detail holds the raw "detail" value of the error body when present.
	Detail json.RawMessage
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("sdk: HTTP %d", e.Status)
	}
	return fmt.Sprintf("sdk: HTTP %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsConflict reports whether err is an APIError with status 409.
func IsConflict(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	apiErr := APIError{Status: resp.StatusCode}
	if len(data) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Detail) == 0 {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Detail = payload.Detail
	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil {
		apiErr.Message = msg
	} else {
		// validation errors arrive as a list of objects
		apiErr.Message = string(payload.Detail)
	}
	return apiErr
}
