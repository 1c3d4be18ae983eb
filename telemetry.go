package sdk

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TelemetryHooks expose observability callbacks without forcing dependencies on the caller.
type TelemetryHooks struct {
	// OnHTTPRequest fires before the HTTP request is sent.
	OnHTTPRequest func(ctx context.Context, req *http.Request)
	// OnHTTPResponse fires after the request completes (even when err != nil).
	OnHTTPResponse func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration)
	// OnStreamEvent fires for every decoded frame before it is dispatched,
	// including frames whose event name the SDK does not recognise.
	OnStreamEvent func(ctx context.Context, event StreamEvent)
	// OnLogEntry allows callers to capture SDK log events.
	OnLogEntry func(ctx context.Context, entry LogEntry)
	// OnMetric records lightweight counters/gauges.
	OnMetric func(ctx context.Context, metric Metric)
}

// LogLevel encodes the severity for log hooks.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry captures structured log details for SDK consumers.
type LogEntry struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// Metric represents a single observability datapoint.
type Metric struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// telemetry pairs the caller's hooks with the SDK logger.
type telemetry struct {
	hooks  TelemetryHooks
	logger zerolog.Logger
}

func (t telemetry) log(ctx context.Context, level LogLevel, msg string, fields map[string]any) {
	var ev *zerolog.Event
	switch level {
	case LogLevelDebug:
		ev = t.logger.Debug()
	case LogLevelError:
		ev = t.logger.Error()
	default:
		ev = t.logger.Info()
	}
	ev.Fields(fields).Msg(msg)

	if t.hooks.OnLogEntry == nil {
		return
	}
	t.hooks.OnLogEntry(ctx, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (t telemetry) metric(ctx context.Context, name string, value float64, labels map[string]string) {
	if t.hooks.OnMetric == nil {
		return
	}
	t.hooks.OnMetric(ctx, Metric{Name: name, Value: value, Labels: labels})
}

func (t telemetry) streamEvent(ctx context.Context, event StreamEvent) {
	if t.hooks.OnStreamEvent != nil {
		t.hooks.OnStreamEvent(ctx, event)
	}
	t.metric(ctx, "sdk_stream_events_total", 1, map[string]string{
		"stream": string(event.Stream),
		"event":  event.EventName(),
	})
}
