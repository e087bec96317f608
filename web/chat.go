// ABOUTME: Chatbot page and streaming endpoint
// ABOUTME: Streams model output to the browser as Server-Sent Events
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaksim/jaksim/chat"
	"github.com/jaksim/jaksim/models"
	"go.uber.org/zap"
)

type chatData struct {
	Messages []models.ChatMessage
	Disabled string
}

func (s *Server) handleChat(c *gin.Context) {
	data := chatData{Messages: currentSession(c).Chat.Messages()}
	if s.chat == nil {
		data.Disabled = s.chatErr.Error()
	}
	s.render(c, http.StatusOK, "챗봇", "chat-content", data)
}

// handleChatStream emits "delta" events with reply text, then "done" with the
// full reply or "error" with a message.
func (s *Server) handleChatStream(c *gin.Context) {
	if s.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": s.chatErr.Error()})
		return
	}
	prompt := c.PostForm("prompt")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	reply, err := currentSession(c).Chat.Send(c.Request.Context(), s.chat, prompt, func(delta string) error {
		c.SSEvent("delta", delta)
		c.Writer.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyPrompt) {
			s.logger.Warn("chat request failed", zap.Error(err))
		}
		c.SSEvent("error", err.Error())
		c.Writer.Flush()
		return
	}
	c.SSEvent("done", reply)
	c.Writer.Flush()
}

func (s *Server) handleChatReset(c *gin.Context) {
	currentSession(c).Chat.Reset()
	s.redirect(c, "/chat")
}
