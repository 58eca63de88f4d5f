package ws

import (
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/relay"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.ServerConfig](i)
		router := do.MustInvoke[*relay.Router](i)
		gateway := do.MustInvoke[*translator.Gateway](i)
		return NewServer(cfg, router, gateway), nil
	})
}
