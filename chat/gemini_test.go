package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jaksim/jaksim/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGeminiContents(t *testing.T) {
	contents, system := toGeminiContents([]models.ChatMessage{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1"},
		{Role: models.RoleUser, Content: "q2"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "be brief", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "a1", contents[1].Parts[0].Text)
	assert.Equal(t, "q2", contents[2].Parts[0].Text)

	_, system = toGeminiContents([]models.ChatMessage{{Role: models.RoleUser, Content: "q"}})
	assert.Nil(t, system)
}

func TestGeminiStreamer(t *testing.T) {
	var path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"Study ", "hard"} {
			_, _ = fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", c)
		}
	}))
	defer ts.Close()

	s, err := NewGeminiStreamer(context.Background(), "test-key", "", ts.URL)
	require.NoError(t, err)

	var deltas []string
	reply, err := s.Stream(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "tip?"}}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Study hard", reply)
	assert.Equal(t, []string{"Study ", "hard"}, deltas)
	assert.True(t, strings.Contains(path, DefaultGeminiModel), path)
}
