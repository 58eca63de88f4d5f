package audio

// Capture format shared by all microphone sources and the recognizer
// adapters: 16 kHz mono signed 16-bit little-endian PCM.
const (
	SampleRate  = 16000
	Channels    = 1
	FrameMs     = 20
	FrameBytes  = SampleRate * FrameMs * Channels * 2 / 1000
	BytesPerSec = SampleRate * Channels * 2
)

// Source delivers live PCM frames from a microphone-like device.
// ReadFrame fills buf with up to one frame and returns the byte count;
// a zero count means no audio is available right now. Only one consumer
// may hold a Source at a time; concurrent microphone acquisition is not
// guaranteed by host devices.
type Source interface {
	ReadFrame(buf []byte) (int, error)
	Close() error
}

// SourceFactory opens a fresh source. Capture strategies acquire the
// microphone through the factory and release it on teardown.
type SourceFactory func() (Source, error)
