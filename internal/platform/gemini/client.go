// Package gemini turns recipe photos into recipe drafts with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"myfood/internal/recipe"
)

// DefaultModel is the Gemini model used for imports.
const DefaultModel = "gemini-1.5-flash"

// Client is a client for the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := client.GenerativeModel(DefaultModel)
	model.SetTemperature(0.2)
	return &Client{client: client, model: model}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ImportRecipe reads a recipe card or dish photo and returns an unsaved
// recipe draft. format is the image subtype, e.g. "jpeg" or "png".
func (c *Client) ImportRecipe(ctx context.Context, imageData []byte, format string) (*recipe.Recipe, error) {
	if format == "" {
		format = "jpeg"
	}
	resp, err := c.model.GenerateContent(ctx,
		genai.ImageData(format, imageData),
		genai.Text(recipe.DraftPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return draftFrom(resp)
}

func draftFrom(resp *genai.GenerateContentResponse) (*recipe.Recipe, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}
	return recipe.ParseDraft(sb.String())
}
