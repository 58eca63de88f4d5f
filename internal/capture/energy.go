package capture

import (
	"encoding/binary"
	"math"

	"github.com/foxseedlab/jimakun/internal/audio"
)

// The human speech band used for activity detection.
const (
	bandLowHz  = 80.0
	bandHighHz = 3000.0
	bandBins   = 16
)

// bandEnergy computes the mean spectral magnitude of one PCM frame over
// the speech band, via a small Goertzel bank. Samples are normalized to
// [-1, 1], so a full-scale in-band tone lands well above the default
// threshold and silence lands at zero.
func bandEnergy(frame []byte) float64 {
	n := len(frame) / 2
	if n == 0 {
		return 0
	}
	samples := make([]float64, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(frame[2*i:]))
		samples[i] = float64(s) / 32768.0
	}

	var total float64
	for b := range bandBins {
		freq := bandLowHz + (bandHighHz-bandLowHz)*float64(b)/float64(bandBins-1)
		total += goertzelMagnitude(samples, freq, audio.SampleRate)
	}
	return total / bandBins
}

// goertzelMagnitude evaluates the normalized DFT magnitude at the bin
// nearest freq.
func goertzelMagnitude(samples []float64, freq, sampleRate float64) float64 {
	n := float64(len(samples))
	k := math.Round(freq * n / sampleRate)
	w := 2 * math.Pi * k / n
	coeff := 2 * math.Cos(w)

	var s1, s2 float64
	for _, x := range samples {
		s0 := x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) / n
}
