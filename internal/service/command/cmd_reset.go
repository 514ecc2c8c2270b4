package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/internal/service/session"
	"github.com/sandevgo/pulsebot/pkg/log"
)

// ResetCommand closes the current session explicitly: distill first, then
// write the reset marker so the next message resolves into a fresh session
// without distilling again.
type ResetCommand struct {
	turns     core.TurnsRepository
	distiller session.ContextDistiller
}

func NewResetCommand(turns core.TurnsRepository, distiller session.ContextDistiller) *ResetCommand {
	return &ResetCommand{
		turns:     turns,
		distiller: distiller,
	}
}

func (c *ResetCommand) Name() string {
	return "reset"
}

func (c *ResetCommand) Description() string {
	return "Close the current session and start fresh"
}

func (c *ResetCommand) Execute(ctx context.Context, scope core.Scope, userID string, _ []string) (string, error) {
	latest, err := c.turns.Latest(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("failed to check session state: %w", err)
	}
	if latest == nil || latest.Content == session.ResetMarker {
		return "Nothing to reset, you are already in a fresh session.", nil
	}

	if !c.distiller.Distill(ctx, scope, userID, latest.Session) {
		log.FromCtx(ctx).Warn().Int("session", latest.Session).Msg("reset proceeding without distillation")
	}

	if err := c.turns.Append(ctx, scope, core.Turn{
		Role:    core.RoleUser,
		Content: session.ResetMarker,
		Session: latest.Session,
	}); err != nil {
		return "", fmt.Errorf("failed to close session: %w", err)
	}

	return "Session closed. Your next message starts a new one.", nil
}
