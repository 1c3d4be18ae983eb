// Package routes provides the API route constants shared by the backend and
// its clients so paths cannot drift apart.
package routes

import (
	"net/url"
	"strings"
)

const (
	// ChatStream streams a character's reply as text/event-stream.
	ChatStream = "/chat/stream"

	// Chats lists (GET) or creates (POST) chats for the authenticated user.
	Chats = "/chats"

	// ChatByID renames (PATCH) or deletes (DELETE) a chat.
	ChatByID = "/chats/{chat_id}"

	// Characters lists (GET) or creates (POST) characters.
	Characters = "/characters"

	// CharacterByID deletes a character.
	CharacterByID = "/characters/{character_id}"

	// Documents lists uploaded documents.
	Documents = "/documents"

	// DocumentsUpload accepts a multipart file upload.
	DocumentsUpload = "/documents/upload"

	// DocumentByID deletes a document.
	DocumentByID = "/documents/{document_id}"

	// DocumentExtract streams knowledge-extraction progress as text/event-stream.
	DocumentExtract = "/documents/{document_id}/extract"
)

// Expand substitutes {name} placeholders with path-escaped values given as
// alternating name/value pairs.
func Expand(route string, pairs ...string) string {
	out := route
	for i := 0; i+1 < len(pairs); i += 2 {
		out = strings.ReplaceAll(out, "{"+pairs[i]+"}", url.PathEscape(pairs[i+1]))
	}
	return out
}
