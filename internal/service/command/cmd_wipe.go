package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/pulsebot/internal/core"
)

// WipeCommand is the only path that deletes stored turns.
type WipeCommand struct {
	turns core.TurnsRepository
}

func NewWipeCommand(turns core.TurnsRepository) *WipeCommand {
	return &WipeCommand{turns: turns}
}

func (c *WipeCommand) Name() string {
	return "wipe"
}

func (c *WipeCommand) Description() string {
	return "Delete the whole conversation history for this chat"
}

func (c *WipeCommand) Execute(ctx context.Context, scope core.Scope, _ string, _ []string) (string, error) {
	if err := c.turns.Wipe(ctx, scope); err != nil {
		return "", fmt.Errorf("failed to wipe history: %w", err)
	}
	return "History wiped.", nil
}
