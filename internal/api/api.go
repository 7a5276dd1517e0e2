// Package api exposes the outreach backend over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/ingest"
	"github.com/sells-group/outreach-api/internal/store"
)

// Server holds handler dependencies.
type Server struct {
	cfg     *config.Config
	store   store.Store
	gateway *ingest.Gateway
}

// NewServer creates a Server.
func NewServer(cfg *config.Config, st store.Store, gateway *ingest.Gateway) *Server {
	return &Server{cfg: cfg, store: st, gateway: gateway}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Post("/profile", s.handleUpsertProfile)
	r.Get("/profile", s.handleGetProfile)

	r.Post("/ingest/upload", s.handleUpload)
	r.Get("/ingest/status/{jobID}", s.handleJobStatus)

	r.Get("/contacts/list", s.handleListContacts)
	r.Get("/feed/drafts", s.handleDraftsFeed)

	r.Post("/action/send", s.handleSend)
	r.Get("/feedback/queue", s.handleFeedbackQueue)
	r.Post("/feedback/swipe", s.handleSwipe)

	r.Get("/analytics/dashboard", s.handleDashboard)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Error("api: health check store ping", zap.Error(err))
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.respondJSON(w, code, map[string]string{"status": status})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			zap.L().Error("api: encode response", zap.Error(err))
		}
	}
}

func (s *Server) httpError(w http.ResponseWriter, message string, code int) {
	s.respondJSON(w, code, map[string]string{"error": message})
}

// requireQuery fetches a mandatory query parameter, writing a 400 and
// returning false when absent.
func (s *Server) requireQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		s.httpError(w, name+" is required", http.StatusBadRequest)
		return "", false
	}
	return v, true
}
