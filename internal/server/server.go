// Package server exposes the grading service over HTTP: problem listing,
// draft save/load, session inspection, and the submission endpoint that
// drives the investigation, analysis, and hint pipeline.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"labta/internal/agent"
	"labta/internal/config"
	"labta/internal/grader"
	"labta/internal/knowledge"
	"labta/internal/problems"
	"labta/internal/session"
)

// Server holds the wired grading pipeline behind the HTTP routes.
type Server struct {
	cfg      *config.Config
	catalog  *problems.Catalog
	sessions *session.Store
	inv      *grader.Investigator
	base     *knowledge.Base
	hints    *agent.Orchestrator
	logger   *zap.Logger

	httpServer *http.Server
}

// New wires the routes over the given pipeline components.
func New(
	cfg *config.Config,
	catalog *problems.Catalog,
	sessions *session.Store,
	inv *grader.Investigator,
	base *knowledge.Base,
	hints *agent.Orchestrator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		sessions: sessions,
		inv:      inv,
		base:     base,
		hints:    hints,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}
	return s
}

// Router builds the chi mux with the middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleHealth)
	r.Get("/problems", s.handleProblems)
	r.Get("/sessions", s.handleSessions)
	r.Get("/draft/{user_id}/{problem_id}", s.handleDraft)
	r.Post("/save", s.handleSave)
	r.Post("/submit", s.handleSubmit)

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.Server.AllowOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.AllowOrigins
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ListenAndServe runs the HTTP server until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already written; nothing left to do but log.
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

// respondError mirrors the {"detail": ...} error shape.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
