// ABOUTME: OpenAI chat completion streamer
// ABOUTME: Uses go-openai streaming and forwards each content delta
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jaksim/jaksim/models"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is the model used when none is configured.
const DefaultOpenAIModel = "gpt-4"

// OpenAIStreamer streams chat completions from OpenAI or a compatible endpoint.
type OpenAIStreamer struct {
	client *openai.Client
	model  string
}

// NewOpenAIStreamer creates a streamer. baseURL may be empty for the public API.
func NewOpenAIStreamer(apiKey, model, baseURL string) (*OpenAIStreamer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIStreamer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (s *OpenAIStreamer) Stream(ctx context.Context, history []models.ChatMessage, onDelta DeltaFunc) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start completion: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("completion stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return "", err
		}
	}
}
