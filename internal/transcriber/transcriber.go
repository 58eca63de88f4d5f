package transcriber

import (
	"context"
	"errors"
)

// ErrUnavailable marks the transcription service as unreachable, most
// commonly because credentials are missing on the device.
var ErrUnavailable = errors.New("transcription service unavailable")

// StreamWriter feeds live PCM into an open recognition stream.
type StreamWriter interface {
	Write(pcm []byte) error
	Close() error
}

// ResultReceiver gets recognition results as they arrive. OnError is
// only invoked for fatal conditions; recoverable stream hiccups are
// handled inside the adapter.
type ResultReceiver interface {
	OnResult(text string, isFinal bool)
	OnError(err error)
}

// StreamingRecognizer is a continuous, interim-enabled recognizer. One
// StartStreaming call opens one long-lived stream.
type StreamingRecognizer interface {
	StartStreaming(ctx context.Context, language string, receiver ResultReceiver) (StreamWriter, error)
}

// SegmentTranscriber transcribes one finalized audio segment in a single
// round trip.
type SegmentTranscriber interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (string, error)
}
