package schema

import (
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// MessagesText renders a message log as "role: content" lines,
// the shape every prompt template expects.
func MessagesText(messages []Message) string {
	lines := pie.Map(messages, func(m Message) string {
		return fmt.Sprintf("%s: %s", m.Role, m.Content)
	})

	return strings.Join(lines, "\n")
}

// LastN returns the trailing n messages without copying.
func LastN(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}

	return messages[len(messages)-n:]
}
