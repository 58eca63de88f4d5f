package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/relay"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 10 * time.Second

// Server terminates device websockets and routes their events into the
// relay. It also exposes a small REST surface for one-shot translation.
type Server struct {
	cfg      *config.ServerConfig
	router   *relay.Router
	gateway  *translator.Gateway
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

func NewServer(cfg *config.ServerConfig, router *relay.Router, gateway *translator.Gateway) *Server {
	s := &Server{
		cfg:     cfg,
		router:  router,
		gateway: gateway,
		upgrader: websocket.Upgrader{
			// Headsets and phones connect from app-local origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/translate", s.handleTranslate)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.httpSrv = &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Run serves until ctx is canceled, then drains with a bounded shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", s.cfg.ListenAddr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn := newConn(socket)
	slog.Info("device connected", "conn_id", conn.ID(), "remote", r.RemoteAddr)

	// Liveness: a probe every interval, one missed pong tolerated, so a
	// silent peer is evicted two intervals after its last pong.
	interval := s.cfg.HeartbeatInterval
	deadline := 2 * interval
	_ = socket.SetReadDeadline(time.Now().Add(deadline))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(deadline))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			}
		}
	}()

	// Events from one device are handled strictly in arrival order; the
	// loop never reads the next frame before the previous one is routed.
	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			slog.Info("device disconnected", "conn_id", conn.ID(), "reason", err.Error())
			break
		}
		s.router.HandleMessage(r.Context(), conn, raw)
	}

	s.router.HandleDisconnect(conn)
	conn.close()
}

type translateRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Original    string `json:"original"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleTranslate is the one-shot REST companion to the relay, useful
// for device-side preview and debugging.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Text == "" || req.From == "" || req.To == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text, from and to are required"})
		return
	}

	translation := s.gateway.Translate(r.Context(), req.Text, req.From, req.To)
	writeJSON(w, http.StatusOK, translateResponse{Translation: translation, Original: req.Text})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
