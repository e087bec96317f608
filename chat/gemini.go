// ABOUTME: Google Gemini chat streamer
// ABOUTME: Uses the google.golang.org/genai streaming content API
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/jaksim/jaksim/models"
	"google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiStreamer streams replies from the Gemini API.
type GeminiStreamer struct {
	client *genai.Client
	model  string
}

// NewGeminiStreamer creates a streamer. baseURL may be empty for the public API.
func NewGeminiStreamer(ctx context.Context, apiKey, model, baseURL string) (*GeminiStreamer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiStreamer{client: client, model: model}, nil
}

func (s *GeminiStreamer) Stream(ctx context.Context, history []models.ChatMessage, onDelta DeltaFunc) (string, error) {
	contents, system := toGeminiContents(history)

	var cfg *genai.GenerateContentConfig
	if system != nil {
		cfg = &genai.GenerateContentConfig{SystemInstruction: system}
	}

	var full strings.Builder
	for resp, err := range s.client.Models.GenerateContentStream(ctx, s.model, contents, cfg) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		delta := resp.Text()
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

// toGeminiContents maps the history to Gemini roles. System messages become
// the system instruction.
func toGeminiContents(history []models.ChatMessage) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range history {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
}
