package capture

import "time"

// Utterance is one finalized piece of recognized speech, ready for the
// relay. Interim text never becomes an Utterance; it only reaches the
// preview callback.
type Utterance struct {
	Text  string
	Final bool
}

// EmitFunc receives finalized utterances. The pipeline calls it serially;
// no two utterances from one device are ever in flight concurrently.
type EmitFunc func(Utterance)

// PreviewFunc receives interim text as a local-only display hint.
type PreviewFunc func(text string)

// StrategyKind selects how the microphone stream is cut into utterances.
type StrategyKind string

const (
	StrategyNative StrategyKind = "native"
	StrategyVAD    StrategyKind = "vad"
	StrategyManual StrategyKind = "manual"
)

// State names the pipeline's position in its capture state machine.
type State string

const (
	StateIdle         State = "idle"
	StateListening    State = "listening"
	StateSpeaking     State = "speaking"
	StateTranscribing State = "transcribing"
)

// Config tunes the segmentation behavior. Zero values fall back to the
// defaults below.
type Config struct {
	Language string

	SilenceTimeout  time.Duration
	MaxSegment      time.Duration
	MinSegmentBytes int
	EnergyThreshold float64
	RestartDelay    time.Duration
	TickInterval    time.Duration
}

const (
	// A segment is finalized after this much unbroken silence.
	defaultSilenceTimeout = 1200 * time.Millisecond
	// Hard cap on segment length, bounding latency and memory even while
	// the speaker never pauses.
	defaultMaxSegment = 12000 * time.Millisecond
	// Segments below this size are dropped as noise before any
	// transcription attempt. 100 ms at the capture format.
	defaultMinSegmentBytes = 3200
	// Mean band energy (80 Hz – 3 kHz) above which a frame counts as
	// speech.
	defaultEnergyThreshold = 0.004
	// The native recognizer needs periodic restarts on long sessions;
	// this is the gap between stream end and restart.
	defaultRestartDelay = 150 * time.Millisecond
	// Cadence of the VAD analysis loop, one capture frame per tick.
	defaultTickInterval = 20 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.SilenceTimeout <= 0 {
		c.SilenceTimeout = defaultSilenceTimeout
	}
	if c.MaxSegment <= 0 {
		c.MaxSegment = defaultMaxSegment
	}
	if c.MinSegmentBytes <= 0 {
		c.MinSegmentBytes = defaultMinSegmentBytes
	}
	if c.EnergyThreshold <= 0 {
		c.EnergyThreshold = defaultEnergyThreshold
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = defaultRestartDelay
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	return c
}
