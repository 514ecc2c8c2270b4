package core

import "time"

const (
	PulseName          = "PulseBot"
	PulseUserAgent     = "PulseBot-Agent/0.1"
	PulseRepositoryURL = "https://github.com/sandevgo/pulsebot"
	PulseVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Scope bounds one session sequence: every turn belongs to exactly one
// (account, chat, bot) tuple and session numbers are counted per scope.
type Scope struct {
	AccountID string
	ChatID    string
	BotID     string
}

// Turn is a single stored conversation entry. Turns are append-only and
// never mutated after insert.
type Turn struct {
	ID            int64     `json:"id"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	Session       int       `json:"session"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message is a prompt entry sent to the model. Unlike Turn it carries no
// storage identity.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

// BotProfile is the tagged configuration of one bot variant: its system
// instructions and the command grammar it speaks. Variants differ by value,
// not by type.
type BotProfile struct {
	Name             string
	Instructions     string
	ConclusionPrefix string
}
