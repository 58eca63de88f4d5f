//go:build opus

package audio

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/hraban/opus"
)

// The opus decoder always produces 48 kHz output; the capture format is
// 16 kHz, so every three decoded samples collapse into one.
const decodeSampleRate = 48000
const decimation = decodeSampleRate / audio.SampleRate

// OpusFileSource decodes a mono Ogg Opus stream into capture frames.
type OpusFileSource struct {
	mu     sync.Mutex
	f      *os.File
	stream *opus.Stream
	// Decoded samples waiting to be framed, already at the capture rate.
	pending []int16
	eof     bool
	closed  bool
}

func NewOpusFileSource(path string) (audio.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, err := opus.NewStream(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &OpusFileSource{f: f, stream: stream}, nil
}

func (s *OpusFileSource) ReadFrame(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil
	}

	want := len(buf) / 2
	if want > audio.FrameBytes/2 {
		want = audio.FrameBytes / 2
	}
	if err := s.fillLocked(want); err != nil {
		return 0, err
	}
	n := len(s.pending)
	if n > want {
		n = want
	}
	for i := range n {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s.pending[i]))
	}
	s.pending = s.pending[n:]
	return n * 2, nil
}

func (s *OpusFileSource) fillLocked(want int) error {
	raw := make([]int16, 5760)
	for len(s.pending) < want && !s.eof {
		n, err := s.stream.Read(raw)
		if err != nil {
			// A drained stream reads as a silent microphone.
			s.eof = true
			return nil
		}
		for i := 0; i+decimation <= n; i += decimation {
			var sum int32
			for j := range decimation {
				sum += int32(raw[i+j])
			}
			s.pending = append(s.pending, int16(sum/decimation))
		}
	}
	return nil
}

func (s *OpusFileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Close()
	return s.f.Close()
}
