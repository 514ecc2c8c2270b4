package session

import (
	"context"
	"time"

	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
)

// ResetMarker is the literal user turn that closes a session explicitly.
// Rollover detection compares the stored turn text against it exactly.
const ResetMarker = "/reset"

// ContextDistiller condenses a closed session into the user's persisted
// context. Implementations report success; failures are advisory.
type ContextDistiller interface {
	Distill(ctx context.Context, scope core.Scope, userID string, session int) bool
}

// Resolver decides which session number an inbound message belongs to.
type Resolver struct {
	turns     core.TurnsRepository
	distiller ContextDistiller
	ttl       time.Duration
	now       func() time.Time
}

func NewResolver(turns core.TurnsRepository, distiller ContextDistiller, ttl time.Duration) *Resolver {
	return &Resolver{
		turns:     turns,
		distiller: distiller,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Resolve returns the active session number for the scope. A scope with no
// history starts at 1. A reset marker or more than ttl of inactivity rolls
// the scope over to the next number; a time-caused rollover first distills
// the closing session, best-effort. The reset path does not distill here:
// the reset command already distilled before writing the marker.
//
// Storage failures degrade to session 1 rather than surfacing to the user.
func (r *Resolver) Resolve(ctx context.Context, scope core.Scope, userID string) int {
	logger := log.FromCtx(ctx)

	latest, err := r.turns.Latest(ctx, scope)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load latest turn, assuming fresh scope")
		return 1
	}
	if latest == nil {
		return 1
	}

	if latest.Content == ResetMarker {
		return latest.Session + 1
	}

	if elapsed := r.now().Sub(latest.CreatedAt); elapsed > r.ttl {
		logger.Info().
			Int("session", latest.Session).
			Dur("idle", elapsed).
			Msg("session expired, rolling over")
		if r.distiller != nil && !r.distiller.Distill(ctx, scope, userID, latest.Session) {
			logger.Warn().Int("session", latest.Session).Msg("distillation skipped or failed")
		}
		return latest.Session + 1
	}

	return latest.Session
}
