// ABOUTME: Chat message model for the chatbot page
// ABOUTME: Roles follow the chat-completion convention
package models

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role+content pair of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
