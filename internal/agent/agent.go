package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/jimakun/internal/audio"
	"github.com/foxseedlab/jimakun/internal/capture"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/relay"
	"github.com/foxseedlab/jimakun/internal/transcriber"
)

const reconnectDelay = 2 * time.Second

// Conn is a connected relay session from the device's point of view.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens a relay connection.
type Dialer func(ctx context.Context, url string) (Conn, error)

// Agent runs one device end of a captioning session: it keeps a relay
// connection alive, announces the device's role on every (re)connect,
// and forwards captured utterances as speech events.
type Agent struct {
	cfg      *config.AgentConfig
	pipeline *capture.Pipeline
	dial     Dialer

	mu   sync.Mutex
	conn Conn
}

func New(cfg *config.AgentConfig, recognizer transcriber.StreamingRecognizer, segments transcriber.SegmentTranscriber, mic audio.SourceFactory, clock capture.Clock, dial Dialer) *Agent {
	a := &Agent{cfg: cfg, dial: dial}
	a.pipeline = capture.NewPipeline(
		capture.Config{Language: cfg.Language},
		recognizer,
		segments,
		mic,
		clock,
		a.OnUtterance,
		a.OnPreview,
	)
	return a
}

// Run connects and serves until ctx is canceled, redialing with a fixed
// delay whenever the connection drops.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.pipeline.Use(capture.StrategyKind(a.cfg.Strategy)); err != nil {
		return err
	}
	defer a.pipeline.Stop()

	for {
		conn, err := a.dial(ctx, a.cfg.ServerURL)
		if err != nil {
			slog.Warn("relay connection failed; retrying", "error", err, "delay", reconnectDelay)
			if !sleepCtx(ctx, reconnectDelay) {
				return nil
			}
			continue
		}
		a.session(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		slog.Info("relay connection lost; reconnecting", "delay", reconnectDelay)
		if !sleepCtx(ctx, reconnectDelay) {
			return nil
		}
	}
}

// OnUtterance is the capture pipeline's emit hook.
func (a *Agent) OnUtterance(u capture.Utterance) {
	a.send(relay.ClientMessage{Type: relay.TypeSpeech, Text: u.Text, IsFinal: u.Final})
}

// OnPreview is the capture pipeline's interim hook; interim text rides
// the same event kind with isFinal unset.
func (a *Agent) OnPreview(text string) {
	a.send(relay.ClientMessage{Type: relay.TypeSpeech, Text: text})
}

// Press and Release expose push-to-talk to the hosting UI.
func (a *Agent) Press()   { a.pipeline.Press() }
func (a *Agent) Release() { a.pipeline.Release() }

func (a *Agent) send(msg any) {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		slog.Debug("dropping outbound event; relay not connected")
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		slog.Warn("relay send failed", "error", err)
	}
}

func (a *Agent) session(ctx context.Context, conn Conn) {
	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.conn = nil
		a.mu.Unlock()
		_ = conn.Close()
	}()

	a.announce()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		a.handleServerMessage(raw)
	}
}

// announce declares the device's role. The headset always creates a
// fresh room, including after reconnects; the phone rejoins the
// configured room code.
func (a *Agent) announce() {
	switch a.cfg.Role {
	case config.RolePhone:
		a.send(relay.ClientMessage{Type: relay.TypeJoinRoom, Code: a.cfg.RoomCode})
	default:
		a.send(relay.ClientMessage{
			Type:        relay.TypeCreateRoom,
			HeadsetLang: a.cfg.Language,
			PhoneLang:   a.cfg.PeerLanguage,
		})
	}
}

func (a *Agent) handleServerMessage(raw []byte) {
	var msg struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		slog.Debug("dropping malformed relay event")
		return
	}
	switch msg.Type {
	case relay.TypeRoomCreated:
		slog.Info("room ready; share this code with the phone", "code", msg.Code)
	case relay.TypeRoomJoined:
		slog.Info("joined room", "code", msg.Code)
	case relay.TypePhoneConnected:
		slog.Info("phone connected")
	case relay.TypePhoneDisconnected:
		slog.Info("phone disconnected")
	case relay.TypeHeadsetDisconnected:
		slog.Info("headset disconnected")
	case relay.TypeTranslatedSpeech:
		var speech relay.TranslatedSpeech
		if err := json.Unmarshal(raw, &speech); err != nil {
			return
		}
		slog.Info("caption", "from", speech.From, "original", speech.Original, "translated", speech.Translated)
	case relay.TypeSpeechEcho:
		slog.Debug("speech delivered")
	case relay.TypeLangUpdated:
		slog.Info("session languages changed")
	case relay.TypeError:
		slog.Error("relay rejected request", "message", msg.Message)
	}
}

// sleepCtx waits for d unless ctx ends first; false means canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
