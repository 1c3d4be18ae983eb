package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/talewright/talewright/sdk/go/routes"
)

// Character is a persona the user can chat with.
type Character struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Initials  string `json:"initials"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CharacterCreateRequest mirrors POST /characters.
type CharacterCreateRequest struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Color    string `json:"color"`
}

// CharactersClient wraps the character endpoints.
type CharactersClient struct {
	client *Client
}

// List returns the caller's characters, oldest first.
func (c *CharactersClient) List(ctx context.Context) ([]Character, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("sdk: characters client not initialized")
	}
	var chars []Character
	if err := c.client.getJSON(ctx, routes.Characters, &chars); err != nil {
		return nil, err
	}
	return chars, nil
}

// Create adds a character.
func (c *CharactersClient) Create(ctx context.Context, req CharacterCreateRequest) (Character, error) {
	if c == nil || c.client == nil {
		return Character{}, fmt.Errorf("sdk: characters client not initialized")
	}
	if strings.TrimSpace(req.Name) == "" {
		return Character{}, fmt.Errorf("sdk: name required")
	}
	httpReq, err := c.client.newJSONRequest(ctx, http.MethodPost, routes.Characters, req)
	if err != nil {
		return Character{}, err
	}
	var ch Character
	if err := c.client.sendAndDecode(httpReq, &ch); err != nil {
		return Character{}, err
	}
	return ch, nil
}

// Delete removes a character.
func (c *CharactersClient) Delete(ctx context.Context, characterID string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: characters client not initialized")
	}
	if strings.TrimSpace(characterID) == "" {
		return fmt.Errorf("sdk: character_id required")
	}
	httpReq, err := c.client.newJSONRequest(ctx, http.MethodDelete, routes.Expand(routes.CharacterByID, "character_id", characterID), nil)
	if err != nil {
		return err
	}
	return c.client.sendAndDecode(httpReq, nil)
}
