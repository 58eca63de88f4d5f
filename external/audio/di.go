package audio

import (
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.SourceFactory, error) {
		c := do.MustInvoke[*config.AgentConfig](i)
		return audio.SourceFactory(func() (audio.Source, error) {
			if c.AudioFormat == "opus" {
				return NewOpusFileSource(c.AudioInput)
			}
			return NewPCMReaderSource(c.AudioInput)
		}), nil
	})
}
