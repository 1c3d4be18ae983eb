package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talewright/talewright/sdk/go/routes"
)

// Chat is a conversation thread with one character.
type Chat struct {
	ID          string    `json:"id"`
	CharacterID string    `json:"character_id"`
	Title       *string   `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatCreateRequest mirrors POST /chats. ChatID is generated when empty.
type ChatCreateRequest struct {
	ChatID      string  `json:"chat_id"`
	CharacterID string  `json:"character_id"`
	Title       *string `json:"title,omitempty"`
}

// ChatsClient wraps the chat endpoints, including the reply stream.
type ChatsClient struct {
	client *Client
}

// NewChatID returns a fresh chat identifier.
func NewChatID() string {
	return uuid.NewString()
}

// Create registers a chat so replies can be streamed into it.
func (c *ChatsClient) Create(ctx context.Context, req ChatCreateRequest) (Chat, error) {
	if c == nil || c.client == nil {
		return Chat{}, fmt.Errorf("sdk: chats client not initialized")
	}
	if strings.TrimSpace(req.CharacterID) == "" {
		return Chat{}, fmt.Errorf("sdk: character_id required")
	}
	if strings.TrimSpace(req.ChatID) == "" {
		req.ChatID = NewChatID()
	}
	httpReq, err := c.client.newJSONRequest(ctx, http.MethodPost, routes.Chats, req)
	if err != nil {
		return Chat{}, err
	}
	var chat Chat
	if err := c.client.sendAndDecode(httpReq, &chat); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// List returns the caller's chats, most recently updated first.
func (c *ChatsClient) List(ctx context.Context) ([]Chat, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("sdk: chats client not initialized")
	}
	var chats []Chat
	if err := c.client.getJSON(ctx, routes.Chats, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Rename sets a chat's title.
func (c *ChatsClient) Rename(ctx context.Context, chatID, title string) (Chat, error) {
	if c == nil || c.client == nil {
		return Chat{}, fmt.Errorf("sdk: chats client not initialized")
	}
	if strings.TrimSpace(chatID) == "" {
		return Chat{}, fmt.Errorf("sdk: chat_id required")
	}
	httpReq, err := c.client.newJSONRequest(ctx, http.MethodPatch, routes.Expand(routes.ChatByID, "chat_id", chatID), map[string]string{"title": title})
	if err != nil {
		return Chat{}, err
	}
	var chat Chat
	if err := c.client.sendAndDecode(httpReq, &chat); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// Delete removes a chat and its messages.
func (c *ChatsClient) Delete(ctx context.Context, chatID string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: chats client not initialized")
	}
	if strings.TrimSpace(chatID) == "" {
		return fmt.Errorf("sdk: chat_id required")
	}
	httpReq, err := c.client.newJSONRequest(ctx, http.MethodDelete, routes.Expand(routes.ChatByID, "chat_id", chatID), nil)
	if err != nil {
		return err
	}
	return c.client.sendAndDecode(httpReq, nil)
}
