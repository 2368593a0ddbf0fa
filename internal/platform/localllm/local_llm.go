// Package localllm imports recipes from photos through a local
// OpenAI-compatible chat completions endpoint.
package localllm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"myfood/internal/recipe"
)

// DefaultModel is the vision model requested from the local server.
const DefaultModel = "gemma-3-12b-it:2"

// Client represents a client for the local LLM.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a new client for the local LLM listening at apiURL.
func NewClient(apiURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		apiURL:     apiURL,
		model:      DefaultModel,
	}
}

// Request represents the request body for the local LLM.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Message represents a message in the request.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content represents the content of a message.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents the image URL in the content.
type ImageURL struct {
	URL string `json:"url"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage represents a message in the response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateContent sends a prompt and an image to the local LLM and returns
// the text of the first choice.
func (c *Client) GenerateContent(ctx context.Context, text string, imageData []byte, format string) (string, error) {
	if format == "" {
		format = "jpeg"
	}
	reqBody := Request{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: text},
					{
						Type: "image_url",
						ImageURL: &ImageURL{
							URL: "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(imageData),
						},
					},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   2048,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("received non-OK status code %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("no content found in response")
	}
	return llmResp.Choices[0].Message.Content, nil
}

// ImportRecipe reads a recipe card or dish photo and returns an unsaved
// recipe draft.
func (c *Client) ImportRecipe(ctx context.Context, imageData []byte, format string) (*recipe.Recipe, error) {
	text, err := c.GenerateContent(ctx, recipe.DraftPrompt, imageData, format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return recipe.ParseDraft(text)
}
