package agent

import (
	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/capture"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Agent, error) {
		cfg := do.MustInvoke[*config.AgentConfig](i)
		recognizer := do.MustInvoke[transcriber.StreamingRecognizer](i)
		segments := do.MustInvoke[transcriber.SegmentTranscriber](i)
		mic := do.MustInvoke[audio.SourceFactory](i)
		dial := do.MustInvoke[Dialer](i)

		return New(cfg, recognizer, segments, mic, capture.NewClock(), dial), nil
	})
}
