package transcriber

import (
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*CloudSpeechTranscriber, error) {
		c := do.MustInvoke[*config.AgentConfig](i)
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (transcriber.StreamingRecognizer, error) {
		return do.MustInvoke[*CloudSpeechTranscriber](i), nil
	})
	do.Provide(injector, func(i do.Injector) (transcriber.SegmentTranscriber, error) {
		return do.MustInvoke[*CloudSpeechTranscriber](i), nil
	})
}
