package core

import "context"

type TurnsRepository interface {
	Append(ctx context.Context, scope Scope, turn Turn) error
	// Latest returns the most recent turn in scope across all sessions,
	// or nil when the scope has no history.
	Latest(ctx context.Context, scope Scope) (*Turn, error)
	// BySession returns all turns of one session in chronological order.
	BySession(ctx context.Context, scope Scope, session int) ([]Turn, error)
	Wipe(ctx context.Context, scope Scope) error
}

type UserContextRepository interface {
	// Get returns the stored context text, or "" when none exists.
	Get(ctx context.Context, accountID, userID string) (string, error)
	Set(ctx context.Context, accountID, userID, text string) error
}
