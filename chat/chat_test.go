package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jaksim/jaksim/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStreamer replies with fixed chunks and records what it was sent.
type scriptedStreamer struct {
	chunks []string
	err    error
	seen   [][]models.ChatMessage
}

func (s *scriptedStreamer) Stream(_ context.Context, history []models.ChatMessage, onDelta DeltaFunc) (string, error) {
	s.seen = append(s.seen, append([]models.ChatMessage(nil), history...))
	if s.err != nil {
		return "", s.err
	}
	for _, c := range s.chunks {
		if err := onDelta(c); err != nil {
			return "", err
		}
	}
	return strings.Join(s.chunks, ""), nil
}

func TestConversationSendStreamsAndRecords(t *testing.T) {
	conv := NewConversation("")
	s := &scriptedStreamer{chunks: []string{"Hel", "lo"}}

	var got []string
	reply, err := conv.Send(context.Background(), s, " hi ", func(d string) error {
		got = append(got, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, []string{"Hel", "lo"}, got)

	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "Hello"},
	}, conv.Messages())
}

func TestConversationSendsFullHistory(t *testing.T) {
	conv := NewConversation("You are a study coach.")
	s := &scriptedStreamer{chunks: []string{"ok"}}
	ctx := context.Background()

	_, err := conv.Send(ctx, s, "first", nil)
	require.NoError(t, err)
	_, err = conv.Send(ctx, s, "second", nil)
	require.NoError(t, err)

	require.Len(t, s.seen, 2)
	assert.Equal(t, []models.ChatMessage{
		{Role: models.RoleSystem, Content: "You are a study coach."},
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "ok"},
		{Role: models.RoleUser, Content: "second"},
	}, s.seen[1])

	// The system prompt is not part of the visible history.
	assert.Len(t, conv.Messages(), 4)
}

func TestConversationSendFailureKeepsUserMessage(t *testing.T) {
	conv := NewConversation("")
	boom := errors.New("upstream unavailable")

	_, err := conv.Send(context.Background(), &scriptedStreamer{err: boom}, "hello", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []models.ChatMessage{{Role: models.RoleUser, Content: "hello"}}, conv.Messages())
}

func TestConversationRejectsEmptyPrompt(t *testing.T) {
	conv := NewConversation("")
	s := &scriptedStreamer{}

	_, err := conv.Send(context.Background(), s, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, s.seen)
	assert.Empty(t, conv.Messages())
}

func TestConversationReset(t *testing.T) {
	conv := NewConversation("")
	_, err := conv.Send(context.Background(), &scriptedStreamer{chunks: []string{"x"}}, "q", nil)
	require.NoError(t, err)

	conv.Reset()
	assert.Empty(t, conv.Messages())
}
