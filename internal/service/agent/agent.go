package agent

import (
	"context"
	"sync"

	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/internal/service/dispatch"
	"github.com/sandevgo/pulsebot/internal/service/session"
	"github.com/sandevgo/pulsebot/pkg/log"
)

const genericErrorNotice = "Something went wrong while answering, please try again."

// SessionResolver decides the active session number for an inbound message.
type SessionResolver interface {
	Resolve(ctx context.Context, scope core.Scope, userID string) int
}

// Agent drives one conversation turn end to end: command short-circuit,
// session resolution, prompt assembly, streamed dispatch, persistence.
type Agent struct {
	profile  core.BotProfile
	turns    core.TurnsRepository
	contexts core.UserContextRepository
	ai       core.AIProvider
	resolver SessionResolver
	router   core.CmdRouter
	window   int

	locks scopeLocks
}

func NewAgent(
	profile core.BotProfile,
	turns core.TurnsRepository,
	contexts core.UserContextRepository,
	ai core.AIProvider,
	resolver SessionResolver,
	router core.CmdRouter,
	window int,
) *Agent {
	if window <= 0 {
		window = 30
	}
	return &Agent{
		profile:  profile,
		turns:    turns,
		contexts: contexts,
		ai:       ai,
		resolver: resolver,
		router:   router,
		window:   window,
	}
}

// HandleMessage processes one inbound message. The caller has already
// acknowledged the platform; everything here runs as detached work, and no
// error escapes. Failures either degrade or surface as a single generic
// notice to the user.
func (a *Agent) HandleMessage(ctx context.Context, m core.Messenger, scope core.Scope, userID, input string) {
	logger := log.FromCtx(ctx)

	// Near-simultaneous messages in one scope would otherwise race on the
	// session number between Resolve and Append. Commands touch the same
	// turn store (reset reads Latest and appends the marker), so they
	// serialize under the scope lock too.
	unlock := a.locks.lock(scope)
	defer unlock()

	if a.router != nil {
		if reply, handled := a.router.Execute(ctx, scope, userID, input); handled {
			if err := m.SendText(ctx, scope.ChatID, reply); err != nil {
				logger.Error().Err(err).Msg("failed to send command reply")
			}
			return
		}
	}

	sess := a.resolver.Resolve(ctx, scope, userID)

	if err := a.turns.Append(ctx, scope, core.Turn{
		Role:    core.RoleUser,
		Content: input,
		Session: sess,
	}); err != nil {
		logger.Error().Err(err).Msg("failed to persist user turn")
	}

	prompt := a.buildPrompt(ctx, scope, userID, sess)

	m.NotifyTyping(ctx, scope.ChatID)

	d := dispatch.New(m, scope.ChatID, dispatch.Config{
		ConclusionPrefix: a.profile.ConclusionPrefix,
	})

	streamErr := a.ai.Stream(ctx, prompt, func(chunk string) error {
		return d.Consume(ctx, chunk)
	})
	if streamErr != nil {
		// Completed lines already reached the user; notify once and stop.
		logger.Error().Err(streamErr).Int("session", sess).Msg("model stream failed")
		if err := m.SendText(ctx, scope.ChatID, genericErrorNotice); err != nil {
			logger.Error().Err(err).Msg("failed to send failure notice")
		}
	} else {
		d.Flush(ctx)
	}

	// Persist whatever the model produced, commands verbatim, even when the
	// stream died partway: the stored transcript mirrors what was generated.
	if full := d.Accumulated(); full != "" {
		if err := a.turns.Append(ctx, scope, core.Turn{
			Role:    core.RoleAssistant,
			Content: full,
			Session: sess,
		}); err != nil {
			logger.Error().Err(err).Msg("failed to persist assistant turn")
		}
	}
}

func (a *Agent) buildPrompt(ctx context.Context, scope core.Scope, userID string, sess int) []core.Message {
	logger := log.FromCtx(ctx)
	messages := make([]core.Message, 0, a.window+2)

	if a.profile.Instructions != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: a.profile.Instructions})
	}

	if userCtx, err := a.contexts.Get(ctx, scope.AccountID, userID); err != nil {
		logger.Warn().Err(err).Msg("failed to load user context")
	} else if userCtx != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: "ABOUT THE USER:\n" + userCtx})
	}

	history, err := a.turns.BySession(ctx, scope, sess)
	if err != nil {
		logger.Error().Err(err).Int("session", sess).Msg("failed to load session history")
		return messages
	}
	if len(history) > a.window {
		history = history[len(history)-a.window:]
	}

	for _, t := range history {
		if t.Content == session.ResetMarker {
			continue
		}
		if t.Role != core.RoleUser && t.Role != core.RoleAssistant {
			continue
		}
		messages = append(messages, core.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

// scopeLocks serializes message handling per scope. Entries are never
// pruned; the owner-only transport keeps the scope set to a handful of
// chats, so the map stays small for the lifetime of the process.
type scopeLocks struct {
	mu sync.Mutex
	m  map[core.Scope]*sync.Mutex
}

func (l *scopeLocks) lock(scope core.Scope) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[core.Scope]*sync.Mutex)
	}
	sm, ok := l.m[scope]
	if !ok {
		sm = &sync.Mutex{}
		l.m[scope] = sm
	}
	l.mu.Unlock()

	sm.Lock()
	return sm.Unlock
}
