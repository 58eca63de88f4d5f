package audio

import (
	"io"
	"os"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
)

// PCMReaderSource adapts any signed 16-bit little-endian PCM byte stream
// to the capture frame interface. "-" reads from stdin, which is how the
// agent is normally fed from arecord or a platform capture shim.
type PCMReaderSource struct {
	mu     sync.Mutex
	r      io.ReadCloser
	eof    bool
	closed bool
}

func NewPCMReaderSource(path string) (audio.Source, error) {
	if path == "-" {
		return &PCMReaderSource{r: os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &PCMReaderSource{r: f}, nil
}

func (s *PCMReaderSource) ReadFrame(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.eof {
		return 0, nil
	}
	if len(buf) > audio.FrameBytes {
		buf = buf[:audio.FrameBytes]
	}
	n, err := io.ReadFull(s.r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// A drained stream reads as a silent microphone, not a failure.
		s.eof = true
		return n - n%2, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PCMReaderSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.r == os.Stdin {
		return nil
	}
	return s.r.Close()
}
