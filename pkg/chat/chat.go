package chat

import (
	"fmt"
	"strings"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"    // Character prompt
)

// ChatMessage represents a single chat message in the conversation.
// The shape matches the chat APIs of the supported LLM providers.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the raw text returned by an LLM provider.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

// History is the persisted conversation between the player and one
// character.
type History struct {
	Character string        `json:"character"`
	Messages  []ChatMessage `json:"messages"`
}

// AddUser appends a player message. Empty text is ignored.
func (h *History) AddUser(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.Messages = append(h.Messages, ChatMessage{Role: ChatRoleUser, Content: text})
}

// AddAgent appends an NPC message. Empty text is ignored.
func (h *History) AddAgent(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.Messages = append(h.Messages, ChatMessage{Role: ChatRoleAgent, Content: text})
}

// Tail returns at most the last n messages.
func (h *History) Tail(n int) []ChatMessage {
	if n <= 0 || len(h.Messages) <= n {
		return h.Messages
	}
	return h.Messages[len(h.Messages)-n:]
}

// Validate checks that every message carries a known role.
func (h *History) Validate() error {
	for i, m := range h.Messages {
		switch m.Role {
		case ChatRoleUser, ChatRoleAgent, ChatRoleSystem:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}
