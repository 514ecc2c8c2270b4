package command

import (
	"context"

	"github.com/sandevgo/pulsebot/internal/config"
	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
)

// maxListedModels caps the /model listing so a large backend catalog does
// not flood the chat.
const maxListedModels = 25

// ModelSwitcher is implemented by providers that can swap models at runtime.
type ModelSwitcher interface {
	SetModel(model string)
}

// ModelLister is implemented by providers that can enumerate the models
// available on their backend.
type ModelLister interface {
	Models(ctx context.Context) ([]core.Model, error)
}

type ModelCommand struct {
	cfg       *config.LLMConfig
	switcher  ModelSwitcher
	formatter *ResponseFormatter
}

func NewModelCommand(cfg *config.LLMConfig, switcher ModelSwitcher) *ModelCommand {
	return &ModelCommand{
		cfg:       cfg,
		switcher:  switcher,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show or change current model"
}

func (c *ModelCommand) Execute(ctx context.Context, _ core.Scope, _ string, args []string) (string, error) {
	if len(args) == 0 {
		sections := []string{
			c.formatter.Info("Current Model"),
			c.formatter.Label("Provider", c.cfg.GetProvider()),
			c.formatter.Label("Model", c.cfg.GetModel()),
		}
		if available := c.listAvailable(ctx); len(available) > 0 {
			sections = append(sections, c.formatter.List("Available", available))
		}
		sections = append(sections,
			c.formatter.Usage("/model [model]"),
			c.formatter.Examples([]string{
				"/model gpt-4o",
				"/model openai/gpt-4o-mini",
			}),
		)
		return c.formatter.Combine(sections...), nil
	}

	c.switcher.SetModel(args[0])
	c.cfg.SetModel(args[0])

	return c.formatter.Success("Model changed to: " + args[0]), nil
}

// listAvailable asks the provider for its model catalog. Providers without
// a listing endpoint and backend errors both degrade to no listing.
func (c *ModelCommand) listAvailable(ctx context.Context) []string {
	lister, ok := c.switcher.(ModelLister)
	if !ok {
		return nil
	}

	models, err := lister.Models(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to list models")
		return nil
	}

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.ID)
		if len(names) == maxListedModels {
			break
		}
	}
	return names
}
