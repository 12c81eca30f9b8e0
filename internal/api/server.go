// Package api provides the HTTP API server for Stillpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stillpoint-hq/stillpoint/internal/audit"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/orchestrator"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	orch     *orchestrator.Orchestrator
	auditLog *audit.Log
	wsHub    *WebSocketHub
}

// Config for the server
type Config struct {
	Port         int
	Orchestrator *orchestrator.Orchestrator
	DB           *storage.DB
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		orch:  cfg.Orchestrator,
		wsHub: NewWebSocketHub(),
	}
	if cfg.DB != nil {
		s.auditLog = audit.NewLog(cfg.DB)
	}

	// The orchestrator pushes assessment.updated and solution.ready
	// through the hub.
	if s.orch != nil {
		s.orch.SetBroadcaster(s)
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/{sessionID}", s.handleGetSession)
			r.Delete("/{sessionID}", s.handleEndSession)
			r.Post("/{sessionID}/turns", s.handleTurn)
			r.Get("/{sessionID}/assessment", s.handleGetAssessment)
			r.Get("/{sessionID}/messages", s.handleGetMessages)
		})

		r.Get("/audit/verify", s.handleVerifyAudit)
	})

	// WebSocket
	r.Get("/ws", s.wsHub.HandleWebSocket)

	s.router = r
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.wsHub.Run()
	fmt.Printf("API server listening on http://localhost%s\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.wsHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Broadcast sends a message to all WebSocket clients
func (s *Server) Broadcast(msgType string, data interface{}) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrSessionEnded):
		s.respondError(w, http.StatusGone, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserName string `json:"user_name"`
	}
	// An empty body is a valid anonymous session
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&input)
	}

	sess, greeting, err := s.orch.StartSession(input.UserName)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"session":  sess,
		"greeting": greeting,
	})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := core.SessionID(chi.URLParam(r, "sessionID"))

	var input struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message required")
		return
	}

	output, err := s.orch.HandleTurn(r.Context(), sessionID, input.Message)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, output)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := core.SessionID(chi.URLParam(r, "sessionID"))

	sess, rec, err := s.orch.Session(sessionID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session":    sess,
		"assessment": rec,
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	sessionID := core.SessionID(chi.URLParam(r, "sessionID"))

	_, rec, err := s.orch.Session(sessionID)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"assessment":     rec,
		"complete":       rec.Complete(),
		"missing_fields": rec.MissingFields(),
	})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := core.SessionID(chi.URLParam(r, "sessionID"))

	messages, err := s.orch.Messages(sessionID, 200)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := core.SessionID(chi.URLParam(r, "sessionID"))

	if err := s.orch.EndSession(sessionID); err != nil {
		s.respondStoreError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleVerifyAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		s.respondError(w, http.StatusServiceUnavailable, "audit log not configured")
		return
	}

	if err := s.auditLog.VerifyChain(); err != nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	count, _ := s.auditLog.Count()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"entries": count,
	})
}
