package capture

import (
	"context"
	"log/slog"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
)

// vadStrategy segments speech by band energy: a frame above the energy
// threshold opens a recording, unbroken silence of SilenceTimeout closes
// it, and MaxSegment force-closes it regardless of continued speech.
type vadStrategy struct {
	p      *Pipeline
	ctx    context.Context
	cancel context.CancelFunc
	mic    audio.Source
	ticker Ticker
	done   chan struct{}

	mu           sync.Mutex
	recording    bool
	transcribing bool
	segment      []byte
	silenceTimer Timer
	maxTimer     Timer
}

func newVADStrategy(p *Pipeline) *vadStrategy {
	return &vadStrategy{p: p}
}

func (s *vadStrategy) Start() error {
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

func (s *vadStrategy) Stop() {
	s.cancel()
	s.ticker.Stop()
	<-s.done

	s.mu.Lock()
	s.recording = false
	s.segment = nil
	s.stopTimersLocked()
	s.mu.Unlock()

	if err := s.mic.Close(); err != nil {
		slog.Warn("failed to close microphone source", "error", err)
	}
}

func (s *vadStrategy) run() {
	defer close(s.done)
	buf := make([]byte, audio.FrameBytes)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C():
			n, err := s.mic.ReadFrame(buf)
			if err != nil {
				slog.Error("microphone read failed; vad loop stopping", "error", err)
				return
			}
			if n == 0 {
				continue
			}
			s.processFrame(buf[:n])
		}
	}
}

func (s *vadStrategy) processFrame(frame []byte) {
	energy := bandEnergy(frame)
	speech := energy >= s.p.cfg.EnergyThreshold

	s.mu.Lock()
	if s.recording {
		s.segment = append(s.segment, frame...)
		if speech {
			s.rearmSilenceTimerLocked()
		}
		s.mu.Unlock()
		return
	}
	// A new recording cannot open while the previous segment is still in
	// transcription.
	if !speech || s.transcribing {
		s.mu.Unlock()
		return
	}

	s.recording = true
	s.segment = append(s.segment[:0], frame...)
	s.rearmSilenceTimerLocked()
	s.maxTimer = s.p.clock.AfterFunc(s.p.cfg.MaxSegment, func() {
		s.finalize("max duration cap")
	})
	s.mu.Unlock()

	s.p.transitionIf(s.ctx, StateSpeaking)
}

func (s *vadStrategy) rearmSilenceTimerLocked() {
	if s.silenceTimer != nil {
		s.silenceTimer.Stop()
	}
	s.silenceTimer = s.p.clock.AfterFunc(s.p.cfg.SilenceTimeout, func() {
		s.finalize("silence timeout")
	})
}

func (s *vadStrategy) stopTimersLocked() {
	if s.silenceTimer != nil {
		s.silenceTimer.Stop()
		s.silenceTimer = nil
	}
	if s.maxTimer != nil {
		s.maxTimer.Stop()
		s.maxTimer = nil
	}
}

// finalize closes the current recording and hands it to transcription.
// Safe to race from both timers; only the first caller wins.
func (s *vadStrategy) finalize(reason string) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}
	s.recording = false
	s.stopTimersLocked()
	segment := s.segment
	s.segment = nil
	s.transcribing = true
	s.mu.Unlock()

	slog.Debug("vad segment finalized", "reason", reason, "bytes", len(segment))

	go func() {
		s.p.transcribeAndEmit(s.ctx, segment)
		s.mu.Lock()
		s.transcribing = false
		s.mu.Unlock()
	}()
}
