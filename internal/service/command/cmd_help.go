package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/pulsebot/internal/core"
)

type HelpCommand struct {
	router *Router
}

func NewHelpCommand(router *Router) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(_ context.Context, _ core.Scope, _ string, _ []string) (string, error) {
	cmds := c.router.ListCommands()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cmd := range cmds {
		sb.WriteString(fmt.Sprintf("/%s  ›  %s\n", cmd.Name(), cmd.Description()))
	}
	return sb.String(), nil
}
