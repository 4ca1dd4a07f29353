// Package server exposes the memory lifecycle engine over HTTP: a JSON API
// for turn processing and memory administration, plus a WebSocket chat
// endpoint for interactive sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/recallengine/recall/internal/config"
	"github.com/recallengine/recall/internal/engine"
	"github.com/recallengine/recall/internal/storage"
)

// Server holds the HTTP surface over a controller.
type Server struct {
	controller *engine.Controller
	cfg        *config.Config
}

// New creates a Server around a controller.
func New(controller *engine.Controller, cfg *config.Config) *Server {
	return &Server{controller: controller, cfg: cfg}
}

// Handler builds the route table with auth and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/turn", s.handleTurn)
	mux.HandleFunc("GET /api/memories", s.handleListMemories)
	mux.HandleFunc("DELETE /api/memories/{id}", s.handleDeleteMemory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /ws/chat", s.handleChatSocket)

	var handler http.Handler = mux
	if s.cfg.Server.RequestsPerMinute > 0 {
		handler = RateLimitMiddleware(handler, NewRateLimiter(s.cfg.Server.RequestsPerMinute))
	}
	return RequireAuth(handler, s.cfg)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server: listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// turnRequest is the body of POST /api/turn.
type turnRequest struct {
	OwnerID string `json:"owner_id"`
	Text    string `json:"text"`
	Turn    int    `json:"turn"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	model, breaker := s.controller.ModelHealth()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"model":         model,
		"model_breaker": breaker,
	})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OwnerID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "owner_id and text are required")
		return
	}
	if req.Turn < 1 {
		writeError(w, http.StatusBadRequest, "turn must be >= 1")
		return
	}

	result := s.controller.ProcessTurn(r.Context(), req.OwnerID, req.Text, req.Turn)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := s.controller.Memories(r.Context(), ownerID, limit)
	if err != nil {
		log.Printf("server: list memories for %s: %v", ownerID, err)
		writeError(w, http.StatusInternalServerError, "failed to list memories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": records, "count": len(records)})
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.controller.Forget(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "memory not found")
			return
		}
		log.Printf("server: delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete memory")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	stats, err := s.controller.Statistics(r.Context(), ownerID)
	if err != nil {
		log.Printf("server: stats for %s: %v", ownerID, err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
