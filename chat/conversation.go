package chat

import (
	"github.com/deeplooplabs/ai-client/openai"
)

// Speaker names the service recognizes on few-shot example turns.
const (
	ExampleUserName      = "example_user"
	ExampleAssistantName = "example_assistant"
)

// Conversation is an ordered dialogue. Index order is dialogue order
// and is preserved verbatim on the wire. An empty conversation builds
// a degenerate but well-formed payload; rejecting it is the service's
// call.
type Conversation []openai.Message

// NewConversation creates a conversation from the given messages
func NewConversation(messages ...openai.Message) Conversation {
	return Conversation(messages)
}

// System appends a system message
func (c Conversation) System(content string) Conversation {
	return append(c, SystemMessage(content))
}

// User appends a user message
func (c Conversation) User(content string) Conversation {
	return append(c, UserMessage(content))
}

// Assistant appends an assistant message
func (c Conversation) Assistant(content string) Conversation {
	return append(c, AssistantMessage(content))
}

// ExampleUser appends a few-shot example of a user turn
func (c Conversation) ExampleUser(content string) Conversation {
	return append(c, ExampleUserMessage(content))
}

// ExampleAssistant appends a few-shot example of an assistant turn
func (c Conversation) ExampleAssistant(content string) Conversation {
	return append(c, ExampleAssistantMessage(content))
}

// Clone returns a copy that shares no backing array with the receiver
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// SystemMessage builds a system message
func SystemMessage(content string) openai.Message {
	return openai.Message{Role: openai.RoleSystem, Content: content}
}

// UserMessage builds a user message
func UserMessage(content string) openai.Message {
	return openai.Message{Role: openai.RoleUser, Content: content}
}

// AssistantMessage builds an assistant message
func AssistantMessage(content string) openai.Message {
	return openai.Message{Role: openai.RoleAssistant, Content: content}
}

// ExampleUserMessage builds a few-shot user turn. Example turns ride
// as system messages named example_user, the convention the service
// uses to keep them apart from the live dialogue.
func ExampleUserMessage(content string) openai.Message {
	return openai.Message{Role: openai.RoleSystem, Content: content, Name: ExampleUserName}
}

// ExampleAssistantMessage builds a few-shot assistant turn
func ExampleAssistantMessage(content string) openai.Message {
	return openai.Message{Role: openai.RoleSystem, Content: content, Name: ExampleAssistantName}
}
