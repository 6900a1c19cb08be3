package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator produces JSON payloads from multimodal prompts. Satisfied by
// *Client; stages accept this interface so tests can stub responses.
type Generator interface {
	GenerateJSON(ctx context.Context, model string, parts ...genai.Part) (string, error)
}

// Client wraps the Gemini API for video-grounded generation.
type Client struct {
	client *genai.Client
}

// NewClient constructs a Gemini client. The API key is passed through from
// the environment and never persisted.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: api key required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GenerateJSON asks a model for a JSON response and returns the raw payload
// with markdown fences stripped.
func (c *Client) GenerateJSON(ctx context.Context, model string, parts ...genai.Part) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("gemini: model required")
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini: prompt parts required")
	}

	generative := c.client.GenerativeModel(model)
	generative.SetTemperature(0.1)
	generative.ResponseMIMEType = "application/json"

	resp, err := generative.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// VideoPart builds the file part the analyst model consumes. The source URL
// is handed to the model directly; the video never transits this process.
func VideoPart(url string) genai.Part {
	return genai.FileData{URI: url}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content in response")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini: no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// CleanJSONBlock removes markdown code fences that models wrap around JSON.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
