package core

import "context"

// AIProvider is the model boundary. Stream feeds raw text fragments to
// onChunk as they arrive; fragment boundaries carry no meaning. Chat is the
// non-streaming variant used for summarization.
type AIProvider interface {
	Stream(ctx context.Context, history []Message, onChunk func(chunk string) error) error
	Chat(ctx context.Context, history []Message) (Message, error)
}

// Messenger is the outbound messaging boundary. Each call may fail
// independently. NotifyTyping is best-effort and returns nothing.
type Messenger interface {
	SendText(ctx context.Context, chatID string, text string) error
	SendPhoto(ctx context.Context, chatID string, url, caption string) error
	// SendSuggestions sends body with one single-use suggestion button per
	// label, one label per row.
	SendSuggestions(ctx context.Context, chatID string, body string, labels []string) error
	NotifyTyping(ctx context.Context, chatID string)
}
