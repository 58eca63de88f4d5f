package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
)

// strategy is one way of cutting the microphone stream into utterances.
// Stop must release every resource (microphone, timers, in-flight
// recording) before returning; only then may the next strategy start,
// because concurrent microphone acquisition is not supported.
type strategy interface {
	Start() error
	Stop()
}

// Pipeline turns a live microphone into discrete utterances under one of
// three interchangeable capture strategies. Exactly one strategy is
// active at a time; utterances are emitted serially.
type Pipeline struct {
	cfg        Config
	recognizer transcriber.StreamingRecognizer
	segments   transcriber.SegmentTranscriber
	mic        audio.SourceFactory
	clock      Clock
	emit       EmitFunc
	preview    PreviewFunc

	// mu guards the strategy lifecycle; stateMu guards only the state
	// word. Worker goroutines touch stateMu and must never wait on mu.
	mu     sync.Mutex
	active strategy
	kind   StrategyKind

	stateMu sync.Mutex
	state   State
}

func NewPipeline(cfg Config, recognizer transcriber.StreamingRecognizer, segments transcriber.SegmentTranscriber, mic audio.SourceFactory, clock Clock, emit EmitFunc, preview PreviewFunc) *Pipeline {
	if preview == nil {
		preview = func(string) {}
	}
	return &Pipeline{
		cfg:        cfg.withDefaults(),
		recognizer: recognizer,
		segments:   segments,
		mic:        mic,
		clock:      clock,
		emit:       emit,
		preview:    preview,
		state:      StateIdle,
	}
}

// Use activates the given strategy, tearing the previous one down first.
// A native strategy that cannot start (recognizer unavailable) degrades
// to VAD instead of failing the pipeline.
func (p *Pipeline) Use(kind StrategyKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.useLocked(kind)
}

func (p *Pipeline) useLocked(kind StrategyKind) error {
	if p.active != nil {
		p.active.Stop()
		p.active = nil
		p.kind = ""
		p.transition(StateIdle)
	}

	next, err := p.newStrategy(kind)
	if err != nil {
		return err
	}
	if err := next.Start(); err != nil {
		if kind == StrategyNative {
			slog.Warn("native recognizer unavailable at start; falling back to vad", "error", err)
			return p.useLocked(StrategyVAD)
		}
		return err
	}
	p.active = next
	p.kind = kind
	p.transition(StateListening)
	slog.Info("capture strategy activated", "strategy", kind)
	return nil
}

func (p *Pipeline) newStrategy(kind StrategyKind) (strategy, error) {
	switch kind {
	case StrategyNative:
		return newNativeStrategy(p), nil
	case StrategyVAD:
		return newVADStrategy(p), nil
	case StrategyManual:
		return newManualStrategy(p), nil
	default:
		return nil, fmt.Errorf("unknown capture strategy %q", kind)
	}
}

// Stop deactivates whatever strategy is running.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		p.active.Stop()
		p.active = nil
		p.kind = ""
		p.transition(StateIdle)
	}
}

// Strategy reports the currently active strategy, empty when stopped.
func (p *Pipeline) Strategy() StrategyKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

// State reports the pipeline's current capture state.
func (p *Pipeline) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// Press starts a push-to-talk recording. A no-op unless the manual
// strategy is active.
func (p *Pipeline) Press() {
	if m := p.manual(); m != nil {
		m.Press()
	}
}

// Release stops a push-to-talk recording and hands the segment to
// transcription. Covers pointer-leave as well as deliberate release.
func (p *Pipeline) Release() {
	if m := p.manual(); m != nil {
		m.Release()
	}
}

func (p *Pipeline) manual() *manualStrategy {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := p.active.(*manualStrategy)
	return m
}

// fallbackToVAD is the native strategy's escape hatch on fatal recognizer
// errors. Runs on its own goroutine; by the time the lock is held the
// pipeline may already have moved on, in which case nothing happens.
func (p *Pipeline) fallbackToVAD() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.kind != StrategyNative {
		return
	}
	slog.Warn("native recognizer fatal error; switching to vad segmentation")
	if err := p.useLocked(StrategyVAD); err != nil {
		slog.Error("vad fallback failed", "error", err)
	}
}

// transition unconditionally records a state change.
func (p *Pipeline) transition(s State) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.setState(s)
}

// transitionIf records a state change only while the owning strategy's
// context is still live, so a stopped strategy's stragglers cannot
// resurrect the state machine.
func (p *Pipeline) transitionIf(ctx context.Context, s State) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	p.setState(s)
}

func (p *Pipeline) setState(s State) {
	if p.state == s {
		return
	}
	slog.Debug("capture state transition", "from", p.state, "to", s)
	p.state = s
}

// transcribeAndEmit sends one finalized segment to the transcription
// service and emits the resulting text. Segments that are too small, or
// that the service cannot transcribe, are dropped silently: transcription
// unavailability surfaces as missing captions, never as an error.
func (p *Pipeline) transcribeAndEmit(ctx context.Context, segment []byte) {
	p.transitionIf(ctx, StateTranscribing)
	defer p.transitionIf(ctx, StateListening)

	if len(segment) < p.cfg.MinSegmentBytes {
		slog.Debug("dropping segment below noise floor", "bytes", len(segment), "min_bytes", p.cfg.MinSegmentBytes)
		return
	}

	text, err := p.segments.Transcribe(ctx, segment, p.cfg.Language)
	if err != nil {
		if errors.Is(err, transcriber.ErrUnavailable) {
			slog.Warn("transcription unavailable; dropping segment", "bytes", len(segment))
		} else if ctx.Err() == nil {
			slog.Error("segment transcription failed", "error", err, "bytes", len(segment))
		}
		return
	}
	text = strings.TrimSpace(text)
	if text == "" || ctx.Err() != nil {
		return
	}
	p.emit(Utterance{Text: text, Final: true})
}
