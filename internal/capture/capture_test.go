package capture

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/transcriber"
)

// ─── fakes ───

type fakeTimer struct {
	d       time.Duration
	f       func()
	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() bool {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return false
	}
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
	return true
}

func (t *fakeTimer) done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped || t.fired
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

type fakeClock struct {
	mu      sync.Mutex
	timers  []*fakeTimer
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock { return &fakeClock{} }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) NewTicker(_ time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// tick drives one iteration of the newest strategy loop. The send only
// completes once the loop has picked it up, so a second tick also acts
// as a fence for the first frame's processing.
func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	if len(c.tickers) == 0 {
		c.mu.Unlock()
		t.Fatal("no ticker registered")
	}
	ticker := c.tickers[len(c.tickers)-1]
	c.mu.Unlock()
	select {
	case ticker.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("strategy loop did not consume tick")
	}
}

// fire triggers the newest pending timer of the given duration.
func (c *fakeClock) fire(d time.Duration) bool {
	c.mu.Lock()
	for i := len(c.timers) - 1; i >= 0; i-- {
		timer := c.timers[i]
		if timer.d == d && !timer.done() {
			c.mu.Unlock()
			return timer.fire()
		}
	}
	c.mu.Unlock()
	return false
}

func (c *fakeClock) hasPending(d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, timer := range c.timers {
		if timer.d == d && !timer.done() {
			return true
		}
	}
	return false
}

type fakeSource struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (s *fakeSource) queue(frames ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frames...)
}

func (s *fakeSource) ReadFrame(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return 0, nil
	}
	frame := s.frames[0]
	s.frames = s.frames[1:]
	return copy(buf, frame), nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeMicFactory struct {
	mu      sync.Mutex
	sources []*fakeSource
	t       *testing.T
}

func (f *fakeMicFactory) factory() (audio.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sources) > 0 && !f.sources[len(f.sources)-1].isClosed() {
		f.t.Fatal("microphone acquired before previous source was released")
	}
	s := &fakeSource{}
	f.sources = append(f.sources, s)
	return s, nil
}

func (f *fakeMicFactory) current() *fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sources) == 0 {
		return nil
	}
	return f.sources[len(f.sources)-1]
}

type fakeSegments struct {
	mu     sync.Mutex
	calls  [][]byte
	text   string
	err    error
	block  chan struct{}
	called chan struct{}
}

func newFakeSegments(text string) *fakeSegments {
	return &fakeSegments{text: text, called: make(chan struct{}, 16)}
}

func (f *fakeSegments) Transcribe(_ context.Context, pcm []byte, _ string) (string, error) {
	f.mu.Lock()
	segment := make([]byte, len(pcm))
	copy(segment, pcm)
	f.calls = append(f.calls, segment)
	block := f.block
	f.mu.Unlock()
	f.called <- struct{}{}
	if block != nil {
		<-block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeSegments) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSegments) lastCall() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fakeStreamWriter struct {
	mu       sync.Mutex
	writes   int
	writeErr error
	closed   bool
}

func (w *fakeStreamWriter) Write(_ []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	return w.writeErr
}

func (w *fakeStreamWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type fakeRecognizer struct {
	mu        sync.Mutex
	startErr  error
	starts    int
	receivers []transcriber.ResultReceiver
	writers   []*fakeStreamWriter
}

func (r *fakeRecognizer) StartStreaming(_ context.Context, _ string, receiver transcriber.ResultReceiver) (transcriber.StreamWriter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.startErr != nil {
		return nil, r.startErr
	}
	w := &fakeStreamWriter{}
	r.receivers = append(r.receivers, receiver)
	r.writers = append(r.writers, w)
	return w, nil
}

func (r *fakeRecognizer) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

func (r *fakeRecognizer) lastReceiver() transcriber.ResultReceiver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.receivers) == 0 {
		return nil
	}
	return r.receivers[len(r.receivers)-1]
}

// ─── test harness ───

type harness struct {
	pipeline   *Pipeline
	clock      *fakeClock
	mic        *fakeMicFactory
	segments   *fakeSegments
	recognizer *fakeRecognizer
	utterances chan Utterance
	previews   chan string
}

func newHarness(t *testing.T, cfg Config) *harness {
	h := &harness{
		clock:      newFakeClock(),
		mic:        &fakeMicFactory{t: t},
		segments:   newFakeSegments("hello there"),
		recognizer: &fakeRecognizer{},
		utterances: make(chan Utterance, 16),
		previews:   make(chan string, 16),
	}
	h.pipeline = NewPipeline(cfg,
		h.recognizer,
		h.segments,
		h.mic.factory,
		h.clock,
		func(u Utterance) { h.utterances <- u },
		func(text string) { h.previews <- text },
	)
	return h
}

func (h *harness) waitUtterance(t *testing.T) Utterance {
	t.Helper()
	select {
	case u := <-h.utterances:
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for utterance")
		return Utterance{}
	}
}

func (h *harness) expectNoUtterance(t *testing.T) {
	t.Helper()
	select {
	case u := <-h.utterances:
		t.Fatalf("unexpected utterance %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

// speechFrame synthesizes one capture frame of an in-band tone. 1050 Hz
// is an exact DFT bin of a 20 ms frame, so the detector sees its full
// magnitude.
func speechFrame() []byte {
	buf := make([]byte, audio.FrameBytes)
	for i := range audio.FrameBytes / 2 {
		sample := int16(16000 * math.Sin(2*math.Pi*1050*float64(i)/audio.SampleRate))
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(sample))
	}
	return buf
}

func silenceFrame() []byte {
	return make([]byte, audio.FrameBytes)
}

// ─── pipeline-level tests ───

func TestUse_SwitchReleasesMicrophoneFirst(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyVAD); err != nil {
		t.Fatalf("expected vad start, got %v", err)
	}
	first := h.mic.current()

	// The factory itself fails the test if the previous source is still
	// open when the next strategy acquires the microphone.
	if err := h.pipeline.Use(StrategyManual); err != nil {
		t.Fatalf("expected manual start, got %v", err)
	}
	if !first.isClosed() {
		t.Fatal("expected first source closed after switch")
	}
	if h.pipeline.Strategy() != StrategyManual {
		t.Fatalf("unexpected active strategy %q", h.pipeline.Strategy())
	}
}

func TestUse_UnknownStrategy(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyKind("telepathy")); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestStop_ReturnsToIdle(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyVAD); err != nil {
		t.Fatalf("expected vad start, got %v", err)
	}
	h.pipeline.Stop()
	if h.pipeline.Strategy() != StrategyKind("") {
		t.Fatalf("expected no active strategy, got %q", h.pipeline.Strategy())
	}
	if h.pipeline.State() != StateIdle {
		t.Fatalf("expected idle state, got %q", h.pipeline.State())
	}
	if !h.mic.current().isClosed() {
		t.Fatal("expected microphone released on stop")
	}
}

func TestUse_NativeStartFailureFallsBackToVAD(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	h.recognizer.startErr = transcriber.ErrUnavailable

	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected fallback instead of error, got %v", err)
	}
	if h.pipeline.Strategy() != StrategyVAD {
		t.Fatalf("expected vad after fallback, got %q", h.pipeline.Strategy())
	}
}
