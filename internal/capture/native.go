package capture

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
)

// nativeStrategy wraps the continuous, interim-enabled recognizer. The
// underlying engine needs a periodic restart on long sessions, so
// whenever the stream ends while still listening it is reopened after a
// short fixed delay. Fatal recognizer errors switch the pipeline over to
// VAD segmentation.
type nativeStrategy struct {
	p      *Pipeline
	ctx    context.Context
	cancel context.CancelFunc
	mic    audio.Source
	ticker Ticker
	done   chan struct{}

	mu           sync.Mutex
	listening    bool
	writer       transcriber.StreamWriter
	restartTimer Timer
}

func newNativeStrategy(p *Pipeline) *nativeStrategy {
	return &nativeStrategy{p: p}
}

func (s *nativeStrategy) Start() error {
	mic, err := s.p.mic()
	if err != nil {
		return err
	}
	s.mic = mic
	s.ctx, s.cancel = context.WithCancel(context.Background())

	writer, err := s.p.recognizer.StartStreaming(s.ctx, s.p.cfg.Language, s)
	if err != nil {
		s.cancel()
		_ = s.mic.Close()
		return err
	}

	s.mu.Lock()
	s.listening = true
	s.writer = writer
	s.mu.Unlock()

	s.ticker = s.p.clock.NewTicker(s.p.cfg.TickInterval)
	s.done = make(chan struct{})
	go s.pump()
	return nil
}

func (s *nativeStrategy) Stop() {
	s.mu.Lock()
	s.listening = false
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
	writer := s.writer
	s.writer = nil
	s.mu.Unlock()

	s.cancel()
	s.ticker.Stop()
	<-s.done

	if writer != nil {
		_ = writer.Close()
	}
	if err := s.mic.Close(); err != nil {
		slog.Warn("failed to close microphone source", "error", err)
	}
}

// pump feeds microphone frames into the open recognition stream.
func (s *nativeStrategy) pump() {
	defer close(s.done)
	buf := make([]byte, audio.FrameBytes)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.ticker.C():
			n, err := s.mic.ReadFrame(buf)
			if err != nil {
				slog.Error("microphone read failed; native pump stopping", "error", err)
				return
			}
			if n == 0 {
				continue
			}
			s.mu.Lock()
			writer := s.writer
			s.mu.Unlock()
			if writer == nil {
				// Between stream end and scheduled restart.
				continue
			}
			if err := writer.Write(buf[:n]); err != nil {
				s.streamEnded(err)
			}
		}
	}
}

// streamEnded handles the recognizer stream going away mid-session.
func (s *nativeStrategy) streamEnded(err error) {
	if s.ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	writer := s.writer
	s.writer = nil
	s.mu.Unlock()
	if writer != nil {
		_ = writer.Close()
	}

	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	slog.Debug("native recognizer stream ended; scheduling restart", "error", err)
	s.restartTimer = s.p.clock.AfterFunc(s.p.cfg.RestartDelay, s.restart)
	s.mu.Unlock()
}

func (s *nativeStrategy) restart() {
	s.mu.Lock()
	if !s.listening || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	writer, err := s.p.recognizer.StartStreaming(s.ctx, s.p.cfg.Language, s)
	if err != nil {
		s.OnError(err)
		return
	}

	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		_ = writer.Close()
		return
	}
	s.writer = writer
	s.mu.Unlock()
	slog.Debug("native recognizer stream restarted")
}

// OnResult implements transcriber.ResultReceiver. Interim text is a
// local preview only; final text is trimmed and emitted once.
func (s *nativeStrategy) OnResult(text string, isFinal bool) {
	if s.ctx.Err() != nil {
		return
	}
	if !isFinal {
		s.p.transitionIf(s.ctx, StateSpeaking)
		s.p.preview(text)
		return
	}
	s.p.transitionIf(s.ctx, StateListening)
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.p.emit(Utterance{Text: text, Final: true})
}

// OnError implements transcriber.ResultReceiver. The adapter only
// reports fatal conditions here; benign hiccups are retried inside it.
func (s *nativeStrategy) OnError(err error) {
	if s.ctx.Err() != nil {
		return
	}
	slog.Warn("native recognizer fatal error", "error", err)
	go s.p.fallbackToVAD()
}
