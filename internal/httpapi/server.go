// Package httpapi exposes the simulator over HTTP: a JSON state API, control
// endpoints, and a WebSocket stream of per-tick snapshots.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"papersim/internal/engine"
	"papersim/internal/live"
)

// Server serves the simulator HTTP API. It reads published snapshots and
// forwards control requests to the engine; it never touches simulation state
// directly.
type Server struct {
	engine *engine.Engine
	pub    *live.Publisher
	hub    *Hub
	log    *slog.Logger
}

// NewServer creates a Server for the given engine and publisher.
func NewServer(eng *engine.Engine, pub *live.Publisher, log *slog.Logger) *Server {
	return &Server{
		engine: eng,
		pub:    pub,
		hub:    NewHub(log),
		log:    log,
	}
}

// Run pumps published snapshots into the WebSocket hub until ctx is
// cancelled. It must be running for /ws clients to receive updates.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	id, events := s.pub.Subscribe(64)
	defer s.pub.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt.Snapshot)
			if err != nil {
				s.log.Error("encoding snapshot for stream", "error", err)
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/history/{symbol}", s.handleHistory)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleWS)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pub.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	snap, ok := s.pub.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot published yet")
		return
	}
	prices, ok := snap.History[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown symbol: "+symbol)
		return
	}
	writeJSON(w, HistoryResponse{Symbol: symbol, Prices: prices})
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.engine.Start()
	writeJSON(w, ControlResponse{OK: true, Status: string(s.engine.Status())})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.engine.Stop()
	writeJSON(w, ControlResponse{OK: true, Status: string(s.engine.Status())})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	writeJSON(w, ControlResponse{OK: true, Status: string(s.engine.Status())})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	serveWS(s.hub, w, r, s.log)
}
