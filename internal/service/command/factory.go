package command

import (
	"github.com/sandevgo/pulsebot/internal/config"
	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/internal/service/session"
)

func NewRouter(
	cfg *config.LLMConfig,
	switcher ModelSwitcher,
	turns core.TurnsRepository,
	distiller session.ContextDistiller,
) *Router {
	router := New([]core.Command{
		NewResetCommand(turns, distiller),
		NewWipeCommand(turns),
		NewModelCommand(cfg, switcher),
	})
	router.commands["help"] = NewHelpCommand(router)
	return router
}
