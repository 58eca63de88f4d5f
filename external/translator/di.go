package translator

import (
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (translator.Provider, error) {
		c := do.MustInvoke[*config.ServerConfig](i)
		return NewMyMemoryProvider(c.TranslatorBaseURL), nil
	})
}
