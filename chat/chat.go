// ABOUTME: Chat conversation kept per session and proxied to a hosted language model
// ABOUTME: Sends the full history every turn and streams the reply incrementally
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jaksim/jaksim/models"
)

var (
	// ErrMissingAPIKey means the provider's API key is not configured.
	ErrMissingAPIKey = errors.New("API key not configured")
	// ErrEmptyPrompt is returned for a blank user message.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// DeltaFunc receives each piece of streamed assistant text, in order.
type DeltaFunc func(delta string) error

// Streamer sends a history to a model and streams the reply.
type Streamer interface {
	Stream(ctx context.Context, history []models.ChatMessage, onDelta DeltaFunc) (string, error)
}

// Conversation is an ordered chat history. Turns are serialized.
type Conversation struct {
	mu       sync.Mutex
	system   string
	messages []models.ChatMessage
}

// NewConversation starts an empty history. systemPrompt may be empty.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{system: strings.TrimSpace(systemPrompt)}
}

// Messages returns a copy of the user and assistant messages.
func (c *Conversation) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

// Reset clears the history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Send appends prompt as a user message, streams the reply to onDelta and
// appends it as an assistant message. When streaming fails the user message
// stays in the history and no assistant message is added.
func (c *Conversation) Send(ctx context.Context, s Streamer, prompt string, onDelta DeltaFunc) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, models.ChatMessage{Role: models.RoleUser, Content: prompt})

	history := make([]models.ChatMessage, 0, len(c.messages)+1)
	if c.system != "" {
		history = append(history, models.ChatMessage{Role: models.RoleSystem, Content: c.system})
	}
	history = append(history, c.messages...)

	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}
	reply, err := s.Stream(ctx, history, onDelta)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	c.messages = append(c.messages, models.ChatMessage{Role: models.RoleAssistant, Content: reply})
	return reply, nil
}
