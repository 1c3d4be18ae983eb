package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/talewright/talewright/sdk/go/routes"
	"github.com/talewright/talewright/sdk/go/sse"
)

// Chat stream event names.
const (
	ChatEventToken    = "token"
	ChatEventCitation = "citation"
	ChatEventGap      = "gap"
	ChatEventDone     = "done"
	ChatEventError    = "error"
)

// ChatStreamRequest mirrors the POST /chat/stream body.
type ChatStreamRequest struct {
	ChatID      string `json:"chat_id"`
	CharacterID string `json:"character_id"`
	Message     string `json:"message"`
}

// TokenEvent is one fragment of the character's reply.
type TokenEvent struct {
	Text string `json:"text"`
}

// CitationEvent points at the source chunk backing part of the reply.
type CitationEvent struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// GapEvent flags a character attribute the story does not define yet.
type GapEvent struct {
	Attribute  string `json:"attribute"`
	Suggestion string `json:"suggestion"`
}

// DoneEvent marks the logical end of the reply. More frames may follow it.
type DoneEvent struct {
	ChatID string `json:"chat_id"`
}

// ChatHandlers receives decoded chat stream events, one call per frame, in
// stream order, on the goroutine that called Stream. Nil handlers are
// skipped. Handlers are not guarded by recover.
type ChatHandlers struct {
	OnToken    func(TokenEvent)
	OnCitation func(CitationEvent)
	OnGap      func(GapEvent)
	OnDone     func(DoneEvent)
	// OnError receives in-band error messages and "HTTP <status>" for a
	// failed response.
	OnError func(message string)
}

type errorPayload struct {
	Message string `json:"message"`
}

// Stream posts req to /chat/stream and dispatches events until the server
// closes the body.
//
// The returned error is nil after a non-2xx response (reported through
// OnError) and after in-band error events. It is an AuthError when no token
// is available, a TransportError when the round trip or a body read fails,
// and a ProtocolError when a frame carries malformed JSON.
func (c *ChatsClient) Stream(ctx context.Context, req ChatStreamRequest, handlers ChatHandlers, options ...StreamOption) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: chats client not initialized")
	}
	return c.client.streamSSE(ctx, streamCall{
		kind:    StreamKindChat,
		path:    routes.ChatStream,
		payload: req,
		onStatus: func(status int, _ string) {
			if handlers.OnError != nil {
				handlers.OnError(fmt.Sprintf("HTTP %d", status))
			}
		},
		dispatch: func(ev sse.Event) error {
			return dispatchChatEvent(handlers, ev)
		},
	}, options)
}

func dispatchChatEvent(h ChatHandlers, ev sse.Event) error {
	switch ev.Name {
	case ChatEventToken:
		var p TokenEvent
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnToken != nil {
			h.OnToken(p)
		}
	case ChatEventCitation:
		var p CitationEvent
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnCitation != nil {
			h.OnCitation(p)
		}
	case ChatEventGap:
		var p GapEvent
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnGap != nil {
			h.OnGap(p)
		}
	case ChatEventDone:
		var p DoneEvent
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnDone != nil {
			h.OnDone(p)
		}
	case ChatEventError:
		var p errorPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnError != nil {
			h.OnError(p.Message)
		}
	default:
		// Unknown events are ignored.
	}
	return nil
}
