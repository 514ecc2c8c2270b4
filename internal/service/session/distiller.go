package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
	"github.com/sandevgo/pulsebot/pkg/retry"
)

const (
	// maxTranscriptTokens bounds the transcript handed to the summarizer;
	// older turns are dropped first.
	maxTranscriptTokens = 6000

	// minContextLength rejects degenerate summarizer outputs so a bad
	// model reply can never wipe the stored context.
	minContextLength = 20
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

// Distiller condenses a closed session's transcript into the per-user
// context blob. Every failure path is logged and reported as non-success;
// nothing here may interrupt the caller's primary flow.
type Distiller struct {
	turns      core.TurnsRepository
	contexts   core.UserContextRepository
	ai         core.AIProvider
	retrier    *retry.Retrier
	wordTarget int

	countTokens func(text string) (int, error)
}

func NewDistiller(
	turns core.TurnsRepository,
	contexts core.UserContextRepository,
	ai core.AIProvider,
	wordTarget int,
) *Distiller {
	if wordTarget <= 0 {
		wordTarget = 500
	}
	return &Distiller{
		turns:       turns,
		contexts:    contexts,
		ai:          ai,
		retrier:     retry.NewDefaultRetrier(),
		wordTarget:  wordTarget,
		countTokens: countTokens,
	}
}

func (d *Distiller) Distill(ctx context.Context, scope core.Scope, userID string, session int) bool {
	logger := log.FromCtx(ctx)

	existing, err := d.contexts.Get(ctx, scope.AccountID, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read user context, merging into empty")
		existing = ""
	}

	turns, err := d.turns.BySession(ctx, scope, session)
	if err != nil {
		logger.Error().Err(err).Int("session", session).Msg("failed to load session turns")
		return false
	}

	transcript := d.renderTranscript(ctx, turns)
	if transcript == "" {
		logger.Debug().Int("session", session).Msg("nothing to distill")
		return false
	}

	var response core.Message
	err = d.retrier.Do(ctx, func() error {
		var chatErr error
		response, chatErr = d.ai.Chat(ctx, d.buildPrompt(existing, transcript))
		return chatErr
	})
	if err != nil {
		logger.Error().Err(err).Int("session", session).Msg("summarization failed")
		return false
	}

	updated := strings.TrimSpace(response.Content)
	if len(updated) < minContextLength {
		logger.Warn().Int("session", session).Int("len", len(updated)).Msg("rejecting degenerate summary")
		return false
	}

	if err := d.contexts.Set(ctx, scope.AccountID, userID, updated); err != nil {
		logger.Error().Err(err).Msg("failed to store user context")
		return false
	}

	logger.Info().Int("session", session).Int("len", len(updated)).Msg("distilled session into user context")
	return true
}

func (d *Distiller) buildPrompt(existing, transcript string) []core.Message {
	instruction := fmt.Sprintf(
		"You maintain a running profile of one user. Merge any new facts from the conversation "+
			"(preferences, constraints, communication style, goals) into the existing profile. "+
			"Keep it concise, at most %d words. Return only the updated profile text, nothing else.",
		d.wordTarget,
	)

	if existing == "" {
		existing = "(empty)"
	}

	return []core.Message{
		{Role: core.RoleSystem, Content: instruction},
		{
			Role: core.RoleUser,
			Content: fmt.Sprintf(
				"EXISTING PROFILE:\n%s\n\nCONVERSATION:\n%s",
				existing, transcript,
			),
		},
	}
}

// renderTranscript formats the session as role-labeled lines, newest kept
// within the token budget. Reset markers are excluded.
func (d *Distiller) renderTranscript(ctx context.Context, turns []core.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Content == ResetMarker || (t.Role != core.RoleUser && t.Role != core.RoleAssistant) {
			continue
		}
		label := "User"
		if t.Role == core.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, t.Content))
	}
	if len(lines) == 0 {
		return ""
	}

	// A BPE token is at least one byte, so a transcript shorter than the
	// budget in bytes can never exceed it and needs no tokenizer pass.
	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}
	if total <= maxTranscriptTokens {
		return strings.Join(lines, "\n")
	}

	// When the tokenizer cannot be loaded, byte length stands in for the
	// token count; the estimate only trims more, never blows the budget.
	byteEstimate := false
	budget := maxTranscriptTokens
	start := len(lines)
	for start > 0 {
		line := lines[start-1]
		cost := len(line) + 1
		if !byteEstimate {
			n, err := d.countTokens(line)
			if err != nil {
				log.FromCtx(ctx).Warn().Err(err).Msg("tokenizer unavailable, truncating by byte length")
				byteEstimate = true
			} else {
				cost = n
			}
		}
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}
	if start == len(lines) {
		// The newest line alone exceeds the budget; keep it anyway and let
		// the model cope.
		start = len(lines) - 1
	}
	return strings.Join(lines[start:], "\n")
}

// getTokenizer loads the encoding once; tiktoken fetches it on first use,
// so the load can fail on a host without the cache.
func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

func countTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	t, err := getTokenizer()
	if err != nil {
		return 0, err
	}
	return len(t.Encode(text, nil, nil)), nil
}
