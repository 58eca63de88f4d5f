package capture

import (
	"errors"
	"testing"
	"time"
)

func (r *fakeRecognizer) lastWriter() *fakeStreamWriter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writers) == 0 {
		return nil
	}
	return r.writers[len(r.writers)-1]
}

func (h *harness) nativeStrategy(t *testing.T) *nativeStrategy {
	t.Helper()
	h.pipeline.mu.Lock()
	defer h.pipeline.mu.Unlock()
	s, ok := h.pipeline.active.(*nativeStrategy)
	if !ok {
		t.Fatalf("expected native strategy active, got %T", h.pipeline.active)
	}
	return s
}

func (h *harness) waitPreview(t *testing.T) string {
	t.Helper()
	select {
	case text := <-h.previews:
		return text
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for preview")
		return ""
	}
}

func TestNative_InterimPreviewsFinalEmits(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected native start, got %v", err)
	}
	receiver := h.recognizer.lastReceiver()

	receiver.OnResult("hello th", false)
	if got := h.waitPreview(t); got != "hello th" {
		t.Fatalf("unexpected preview %q", got)
	}
	if h.pipeline.State() != StateSpeaking {
		t.Fatalf("expected speaking on interim, got %q", h.pipeline.State())
	}

	receiver.OnResult("  hello there  ", true)
	u := h.waitUtterance(t)
	if u.Text != "hello there" || !u.Final {
		t.Fatalf("unexpected utterance %+v", u)
	}
	if h.pipeline.State() != StateListening {
		t.Fatalf("expected listening after final, got %q", h.pipeline.State())
	}
}

func TestNative_BlankFinalDropped(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected native start, got %v", err)
	}

	h.recognizer.lastReceiver().OnResult("   ", true)
	h.expectNoUtterance(t)
}

func TestNative_PumpWritesFramesToStream(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected native start, got %v", err)
	}

	h.feed(t, repeat(speechFrame(), 3)...)
	writer := h.recognizer.lastWriter()
	writer.mu.Lock()
	writes := writer.writes
	writer.mu.Unlock()
	if writes != 3 {
		t.Fatalf("expected 3 stream writes, got %d", writes)
	}
}

func TestNative_RestartAfterStreamEnd(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected native start, got %v", err)
	}
	first := h.recognizer.lastWriter()

	h.nativeStrategy(t).streamEnded(errors.New("stream closed"))
	first.mu.Lock()
	closed := first.closed
	first.mu.Unlock()
	if !closed {
		t.Fatal("expected dead stream writer closed")
	}
	if got := h.recognizer.startCount(); got != 1 {
		t.Fatalf("expected restart delayed, got %d streams", got)
	}

	if !h.clock.fire(defaultRestartDelay) {
		t.Fatal("expected a pending restart timer")
	}
	if got := h.recognizer.startCount(); got != 2 {
		t.Fatalf("expected a second stream after restart, got %d", got)
	}

	// The fresh stream keeps receiving recognition results.
	h.recognizer.lastReceiver().OnResult("after restart", true)
	if u := h.waitUtterance(t); u.Text != "after restart" {
		t.Fatalf("unexpected utterance %+v", u)
	}
}

func TestNative_FatalErrorFallsBackToVAD(t *testing.T) {
	h := newHarness(t, Config{Language: "en"})
	if err := h.pipeline.Use(StrategyNative); err != nil {
		t.Fatalf("expected native start, got %v", err)
	}

	h.recognizer.lastReceiver().OnError(errors.New("recognizer gone"))

	deadline := time.Now().Add(time.Second)
	for h.pipeline.Strategy() != StrategyVAD {
		if time.Now().After(deadline) {
			t.Fatalf("pipeline never fell back to vad, strategy %q", h.pipeline.Strategy())
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The fallback owns the microphone now; the old native source must be
	// released (the factory enforces single ownership on acquisition).
	h.feed(t, repeat(speechFrame(), 6)...)
	if !h.clock.fire(defaultSilenceTimeout) {
		t.Fatal("expected vad recording after fallback")
	}
	if u := h.waitUtterance(t); u.Text != "hello there" {
		t.Fatalf("unexpected utterance %+v", u)
	}
}
