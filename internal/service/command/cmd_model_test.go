package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/pulsebot/internal/config"
	"github.com/sandevgo/pulsebot/internal/core"
)

type fakeSwitcher struct {
	model string
}

func (f *fakeSwitcher) SetModel(model string) { f.model = model }

type fakeListingSwitcher struct {
	fakeSwitcher
	models []core.Model
	err    error
}

func (f *fakeListingSwitcher) Models(_ context.Context) ([]core.Model, error) {
	return f.models, f.err
}

func modelTestConfig() *config.LLMConfig {
	return &config.LLMConfig{Provider: "openrouter", Model: "openai/gpt-4o-mini"}
}

func TestModelCommand_SwitchesModel(t *testing.T) {
	cfg := modelTestConfig()
	sw := &fakeSwitcher{}
	cmd := NewModelCommand(cfg, sw)

	reply, err := cmd.Execute(context.Background(), testScope, "u1", []string{"gpt-4o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "gpt-4o") {
		t.Errorf("reply = %q", reply)
	}
	if sw.model != "gpt-4o" || cfg.GetModel() != "gpt-4o" {
		t.Errorf("switch not applied: provider=%q config=%q", sw.model, cfg.GetModel())
	}
}

func TestModelCommand_ListsAvailableModels(t *testing.T) {
	sw := &fakeListingSwitcher{models: []core.Model{
		{ID: "openai/gpt-4o", Name: "GPT-4o"},
		{ID: "anthropic/claude-sonnet", Name: "Claude Sonnet"},
	}}
	cmd := NewModelCommand(modelTestConfig(), sw)

	reply, err := cmd.Execute(context.Background(), testScope, "u1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Available") {
		t.Errorf("reply missing listing section: %q", reply)
	}
	if !strings.Contains(reply, "openai/gpt-4o") || !strings.Contains(reply, "anthropic/claude-sonnet") {
		t.Errorf("reply missing model IDs: %q", reply)
	}
}

func TestModelCommand_ListingIsCapped(t *testing.T) {
	models := make([]core.Model, maxListedModels+10)
	for i := range models {
		models[i] = core.Model{ID: "model-" + strings.Repeat("x", i%5)}
	}
	sw := &fakeListingSwitcher{models: models}
	cmd := NewModelCommand(modelTestConfig(), sw)

	got := cmd.listAvailable(context.Background())
	if len(got) != maxListedModels {
		t.Errorf("listed %d models, want %d", len(got), maxListedModels)
	}
}

func TestModelCommand_NoListingEndpointDegrades(t *testing.T) {
	tests := []struct {
		name     string
		switcher ModelSwitcher
	}{
		{name: "provider cannot list", switcher: &fakeSwitcher{}},
		{name: "backend error", switcher: &fakeListingSwitcher{err: errors.New("api down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewModelCommand(modelTestConfig(), tt.switcher)

			reply, err := cmd.Execute(context.Background(), testScope, "u1", nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Contains(reply, "Available") {
				t.Errorf("reply has a listing section without models: %q", reply)
			}
			if !strings.Contains(reply, "Current Model") {
				t.Errorf("reply missing current model info: %q", reply)
			}
		})
	}
}
