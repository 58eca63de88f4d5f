package capture

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/foxseedlab/jimakun/internal/audio"
)

func toneFrame(freq float64) []byte {
	buf := make([]byte, audio.FrameBytes)
	for i := range audio.FrameBytes / 2 {
		sample := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/audio.SampleRate))
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(sample))
	}
	return buf
}

func TestBandEnergy_SilenceIsZero(t *testing.T) {
	if got := bandEnergy(silenceFrame()); got != 0 {
		t.Fatalf("expected zero energy for silence, got %g", got)
	}
}

func TestBandEnergy_InBandToneCountsAsSpeech(t *testing.T) {
	got := bandEnergy(toneFrame(1050))
	if got < defaultEnergyThreshold {
		t.Fatalf("expected in-band tone above threshold %g, got %g", defaultEnergyThreshold, got)
	}
}

func TestBandEnergy_OutOfBandToneStaysBelowThreshold(t *testing.T) {
	got := bandEnergy(toneFrame(6000))
	if got >= defaultEnergyThreshold {
		t.Fatalf("expected out-of-band tone below threshold %g, got %g", defaultEnergyThreshold, got)
	}
}

func TestBandEnergy_EmptyFrame(t *testing.T) {
	if got := bandEnergy(nil); got != 0 {
		t.Fatalf("expected zero energy for empty frame, got %g", got)
	}
}
