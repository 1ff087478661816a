package provider

import (
	"context"
)

type Completer interface {
	Complete(ctx context.Context, messages []Message, options *CompleteOptions) (*Completion, error)
}

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role MessageRole

	Text string
}

type CompleteOptions struct {
	MaxTokens   *int
	Temperature *float32
}

type Completion struct {
	ID    string
	Model string

	Message *Message

	Usage *Usage
}
