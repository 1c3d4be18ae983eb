package sdk

// StreamKind identifies which endpoint a stream event came from.
type StreamKind string

const (
	StreamKindChat       StreamKind = "chat"
	StreamKindExtraction StreamKind = "extraction"
)

// StreamEvent is the raw view of a decoded frame passed to telemetry hooks.
type StreamEvent struct {
	Stream StreamKind
	Name   string
	Data   []byte
}

// EventName returns the event name, or "message" for frames without one.
func (e StreamEvent) EventName() string {
	if e.Name != "" {
		return e.Name
	}
	return "message"
}
