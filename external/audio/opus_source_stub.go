//go:build !opus

package audio

import (
	"fmt"

	"github.com/foxseedlab/jimakun/internal/audio"
)

func NewOpusFileSource(_ string) (audio.Source, error) {
	return nil, fmt.Errorf("opus audio input requires a build with the opus tag")
}
