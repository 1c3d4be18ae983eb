package sdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/talewright/talewright/sdk/go/routes"
)

// Document status values reported by the API.
const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusExtracting = "extracting"
	DocumentStatusExtracted  = "extracted"
	DocumentStatusError      = "error"
)

var uploadExtensions = map[string]bool{".md": true, ".txt": true, ".docx": true}

// Document is an uploaded story file.
type Document struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	Size         int64   `json:"size"`
	Status       string  `json:"status"`
	UploadedAt   string  `json:"uploaded_at"`
	ChunksStored *int    `json:"chunks_stored,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// DocumentsClient wraps the document endpoints, including the extraction stream.
type DocumentsClient struct {
	client *Client
}

// Upload sends a .md, .txt or .docx file as multipart form data.
func (d *DocumentsClient) Upload(ctx context.Context, filename string, content io.Reader) (Document, error) {
	if d == nil || d.client == nil {
		return Document{}, fmt.Errorf("sdk: documents client not initialized")
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		return Document{}, fmt.Errorf("sdk: filename required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !uploadExtensions[ext] {
		return Document{}, fmt.Errorf("sdk: unsupported file type %q (allowed: .docx, .md, .txt)", ext)
	}
	if content == nil {
		return Document{}, fmt.Errorf("sdk: content required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return Document{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return Document{}, err
	}
	if err := form.Close(); err != nil {
		return Document{}, err
	}

	httpReq, err := d.client.newRequest(ctx, http.MethodPost, routes.DocumentsUpload, &body, form.FormDataContentType())
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := d.client.sendAndDecode(httpReq, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// List returns the caller's documents.
func (d *DocumentsClient) List(ctx context.Context) ([]Document, error) {
	if d == nil || d.client == nil {
		return nil, fmt.Errorf("sdk: documents client not initialized")
	}
	var docs []Document
	if err := d.client.getJSON(ctx, routes.Documents, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Delete removes a document.
func (d *DocumentsClient) Delete(ctx context.Context, documentID string) error {
	if d == nil || d.client == nil {
		return fmt.Errorf("sdk: documents client not initialized")
	}
	if strings.TrimSpace(documentID) == "" {
		return fmt.Errorf("sdk: document_id required")
	}
	httpReq, err := d.client.newJSONRequest(ctx, http.MethodDelete, routes.Expand(routes.DocumentByID, "document_id", documentID), nil)
	if err != nil {
		return err
	}
	return d.client.sendAndDecode(httpReq, nil)
}
