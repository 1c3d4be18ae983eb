package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one decoded frame: its tag and its JSON payload.
type Event struct {
	Name string
	Data json.RawMessage
}

// MalformedDataError reports a data line that is not valid JSON.
type MalformedDataError struct {
	Event string
	Data  string
}

func (e *MalformedDataError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("sse: malformed data payload %q", truncate(e.Data, 120))
	}
	return fmt.Sprintf("sse: malformed data payload for event %q: %q", e.Event, truncate(e.Data, 120))
}

// ParseFrame extracts the first event and data lines of a frame. ok is false
// when the frame carries no data line. A data value that is not valid JSON
// returns a *MalformedDataError whatever the event name.
func ParseFrame(frame string) (ev Event, ok bool, err error) {
	var data string
	var haveEvent, haveData bool
	for _, line := range splitLines(frame) {
		switch {
		case !haveEvent && strings.HasPrefix(line, "event:"):
			if v := fieldValue(line, "event:"); v != "" {
				ev.Name = v
				haveEvent = true
			}
		case !haveData && strings.HasPrefix(line, "data:"):
			if v := fieldValue(line, "data:"); v != "" {
				data = v
				haveData = true
			}
		}
	}
	if !haveData {
		return Event{}, false, nil
	}
	if !json.Valid([]byte(data)) {
		return Event{}, false, &MalformedDataError{Event: ev.Name, Data: data}
	}
	ev.Data = json.RawMessage(data)
	return ev, true, nil
}

func fieldValue(line, prefix string) string {
	v := line[len(prefix):]
	return strings.TrimPrefix(v, " ")
}

// splitLines accepts \n, \r\n and \r line endings.
func splitLines(frame string) []string {
	if strings.IndexByte(frame, '\r') >= 0 {
		frame = strings.ReplaceAll(frame, "\r\n", "\n")
		frame = strings.ReplaceAll(frame, "\r", "\n")
	}
	return strings.Split(frame, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
