package capture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
)

// manualStrategy is push-to-talk: recording runs from Press to Release
// and produces exactly one segment per cycle, regardless of detected
// energy.
type manualStrategy struct {
	p      *Pipeline
	ctx    context.Context
	cancel context.CancelFunc
	mic    audio.Source
	ticker Ticker
	done   chan struct{}

	mu           sync.Mutex
	pressed      bool
	transcribing bool
	segment      []byte
}

func newManualStrategy(p *Pipeline) *manualStrategy {
	return &manualStrategy{p: p}
}

func (s *manualStrategy) Start() error {
	mic, err := s.p.mic()
	if err != nil {
		return err
	}
	s.mic = mic
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ticker = s.p.clock.NewTicker(s.p.cfg.TickInterval)
	s.done = make(chan struct{})
	go s.run()
	return nil
}

func (s *manualStrategy) Stop() {
	s.cancel()
	s.ticker.Stop()
	<-s.done

	s.mu.Lock()
	s.pressed = false
	s.segment = nil
	s.mu.Unlock()

	if err := s.mic.Close(); err != nil {
		slog.Warn("failed to close microphone source", "error", err)
	}
}

func (s *manualStrategy) run() {
	defer close(s.done)
	buf := make([]byte, audio.FrameBytes)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C():
			n, err := s.mic.ReadFrame(buf)
			if err != nil {
				slog.Error("microphone read failed; manual loop stopping", "error", err)
				return
			}
			if n == 0 {
				continue
			}
			s.appendFrame(buf[:n])
		}
	}
}

func (s *manualStrategy) appendFrame(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pressed {
		s.segment = append(s.segment, frame...)
	}
}

// Press opens a recording. Ignored while a previous segment is still in
// transcription, so at most one segment is ever in flight.
func (s *manualStrategy) Press() {
	s.mu.Lock()
	if s.pressed || s.transcribing {
		s.mu.Unlock()
		return
	}
	s.pressed = true
	s.segment = s.segment[:0]
	s.mu.Unlock()

	s.p.transitionIf(s.ctx, StateSpeaking)
}

// Release closes the recording and hands the segment to transcription.
// A Release without a matching Press is a no-op, which makes the forced
// pointer-leave release safe to call unconditionally.
func (s *manualStrategy) Release() {
	s.mu.Lock()
	if !s.pressed {
		s.mu.Unlock()
		return
	}
	s.pressed = false
	segment := s.segment
	s.segment = nil
	s.transcribing = true
	s.mu.Unlock()

	slog.Debug("push-to-talk segment closed", "bytes", len(segment))

	go func() {
		s.p.transcribeAndEmit(s.ctx, segment)
		s.mu.Lock()
		s.transcribing = false
		s.mu.Unlock()
	}()
}
