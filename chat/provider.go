// ABOUTME: Chat provider selection from configuration
// ABOUTME: Returns the OpenAI or Gemini streamer named by the config
package chat

import (
	"context"
	"fmt"

	"github.com/jaksim/jaksim/config"
)

// NewStreamer builds the streamer for cfg.Provider. A missing key yields ErrMissingAPIKey.
func NewStreamer(ctx context.Context, cfg config.ChatConfig) (Streamer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		s, err := NewOpenAIStreamer(cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.ProviderGemini:
		s, err := NewGeminiStreamer(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
