package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talewright/talewright/sdk/go/routes"
	"github.com/talewright/talewright/sdk/go/sse"
)

// Extraction stream event names.
const (
	ExtractionEventProgress = "progress"
	ExtractionEventComplete = "complete"
	ExtractionEventError    = "error"
)

// DefaultPipelineOption is sent when ExtractRequest.PipelineOption is empty.
const DefaultPipelineOption = "advanced"

// ExtractRequest starts knowledge extraction for an uploaded document.
type ExtractRequest struct {
	DocumentID         string
	SelectedCharacters []string
	PipelineOption     string
}

type extractPayload struct {
	SelectedCharacters []string `json:"selected_characters"`
	PipelineOption     string   `json:"pipeline_option"`
}

// ProgressEvent reports pipeline progress. ChunksTotal and ChunksProcessed
// are nil while the pipeline does not know them yet.
type ProgressEvent struct {
	Stage           string `json:"stage"`
	ProgressPct     int    `json:"progressPct"`
	ChunksTotal     *int   `json:"chunksTotal"`
	ChunksProcessed *int   `json:"chunksProcessed"`
}

type wireProgress struct {
	Stage           string `json:"stage"`
	ProgressPct     int    `json:"progress_pct"`
	ChunksTotal     *int   `json:"chunks_total"`
	ChunksProcessed *int   `json:"chunks_processed"`
}

// CompleteEvent reports how many chunks were stored.
type CompleteEvent struct {
	ChunksStored int `json:"chunks_stored"`
}

// ExtractionHandlers receives decoded extraction events with the same
// ordering and threading guarantees as ChatHandlers.
type ExtractionHandlers struct {
	OnProgress func(ProgressEvent)
	OnComplete func(CompleteEvent)
	// OnError receives in-band error messages and
	// "HTTP <status> — <body>" for a failed response.
	OnError func(message string)
}

// Extract posts to /documents/{id}/extract and dispatches progress events
// until the server closes the body. Errors follow ChatsClient.Stream.
func (d *DocumentsClient) Extract(ctx context.Context, req ExtractRequest, handlers ExtractionHandlers, options ...StreamOption) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("sdk: documents client not initialized")
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		return fmt.Errorf("sdk: document_id required")
	}
	pipeline := req.PipelineOption
	if pipeline == "" {
		pipeline = DefaultPipelineOption
	}
	characters := req.SelectedCharacters
	if characters == nil {
		characters = []string{}
	}
	return d.client.streamSSE(ctx, streamCall{
		kind: StreamKindExtraction,
		path: routes.Expand(routes.DocumentExtract, "document_id", req.DocumentID),
		payload: extractPayload{
			SelectedCharacters: characters,
			PipelineOption:     pipeline,
		},
		readErrorBody: true,
		onStatus: func(status int, body string) {
			if handlers.OnError != nil {
				handlers.OnError(fmt.Sprintf("HTTP %d — %s", status, body))
			}
		},
		dispatch: func(ev sse.Event) error {
			return dispatchExtractionEvent(handlers, ev)
		},
	}, options)
}

func dispatchExtractionEvent(h ExtractionHandlers, ev sse.Event) error {
	switch ev.Name {
	case ExtractionEventProgress:
		var p wireProgress
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnProgress != nil {
			h.OnProgress(ProgressEvent{
				Stage:           p.Stage,
				ProgressPct:     p.ProgressPct,
				ChunksTotal:     p.ChunksTotal,
				ChunksProcessed: p.ChunksProcessed,
			})
		}
	case ExtractionEventComplete:
		var p CompleteEvent
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return err
		}
		if h.OnComplete != nil {
			h.OnComplete(p)
		}
	case ExtractionEventError:
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
