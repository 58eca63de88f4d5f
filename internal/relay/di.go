package relay

import (
	"github.com/foxseedlab/jimakun/internal/room"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*room.Registry, error) {
		return room.NewRegistry(), nil
	})
	do.Provide(injector, func(i do.Injector) (*Router, error) {
		registry := do.MustInvoke[*room.Registry](i)
		gateway := do.MustInvoke[*translator.Gateway](i)
		return NewRouter(registry, gateway), nil
	})
}
