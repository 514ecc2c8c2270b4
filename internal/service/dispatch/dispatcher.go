package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
)

const (
	ImagePrefix = "TG_IMAGE "

	defaultSendTimeout = 30 * time.Second
)

type Config struct {
	// ConclusionPrefix is the configured conclusion grammar keyword,
	// without the trailing space (e.g. "TG_CONCLUSION").
	ConclusionPrefix string
	// SendTimeout caps each messenger call so one hung send cannot stall
	// every following line.
	SendTimeout time.Duration
}

// Dispatcher reassembles a model's chunk stream into logical lines and
// executes each line against the messenger, in completion order. It also
// accumulates the verbatim stream text for persistence; command lines are
// stored as-is, not replaced by their rendered effect.
//
// A Dispatcher is owned by exactly one response generation and is not safe
// for concurrent use.
type Dispatcher struct {
	messenger core.Messenger
	chatID    string
	cfg       Config

	pending string
	full    strings.Builder
}

func New(messenger core.Messenger, chatID string, cfg Config) *Dispatcher {
	if cfg.ConclusionPrefix == "" {
		cfg.ConclusionPrefix = "TG_CONCLUSION"
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	return &Dispatcher{
		messenger: messenger,
		chatID:    chatID,
		cfg:       cfg,
	}
}

// Consume ingests one stream fragment. Fragment boundaries carry no meaning:
// only newline characters complete a line. Completed lines are dispatched
// before Consume returns, so line order equals completion order.
func (d *Dispatcher) Consume(ctx context.Context, chunk string) error {
	d.full.WriteString(chunk)

	parts := strings.Split(d.pending+chunk, "\n")
	d.pending = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		d.dispatchLine(ctx, line)
	}
	return ctx.Err()
}

// Flush dispatches the trailing partial line, if any. Call it exactly once
// when the stream terminates normally.
func (d *Dispatcher) Flush(ctx context.Context) {
	line := d.pending
	d.pending = ""
	if strings.TrimSpace(line) != "" {
		d.dispatchLine(ctx, line)
	}
}

// Accumulated returns the full concatenated stream text received so far.
func (d *Dispatcher) Accumulated() string {
	return d.full.String()
}

func (d *Dispatcher) dispatchLine(ctx context.Context, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	logger := log.FromCtx(ctx)
	act := classify(line, d.cfg.ConclusionPrefix)

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	// A failed send is logged and the next line proceeds; out-of-order
	// delivery would be worse than a hole in the conversation.
	switch act.kind {
	case actionImage:
		if err := d.messenger.SendPhoto(sendCtx, d.chatID, act.url, act.caption); err != nil {
			logger.Error().Err(err).Str("url", act.url).Msg("failed to send photo")
			return
		}
		d.messenger.NotifyTyping(ctx, d.chatID)
	case actionConclusion:
		if err := d.messenger.SendSuggestions(sendCtx, d.chatID, act.body, act.labels); err != nil {
			logger.Error().Err(err).Msg("failed to send suggestions")
		}
	default:
		if err := d.messenger.SendText(sendCtx, d.chatID, line); err != nil {
			logger.Error().Err(err).Msg("failed to send text")
			return
		}
		d.messenger.NotifyTyping(ctx, d.chatID)
	}
}
