package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cypher-grc/cypher/internal/api/handler"
	mw "github.com/cypher-grc/cypher/internal/api/middleware"
	"github.com/cypher-grc/cypher/internal/config"
	"github.com/cypher-grc/cypher/internal/core"
)

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	pool        *pgxpool.Pool
	cfg         *config.Config
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    core.NewServices(pool),
		pool:        pool,
		cfg:         cfg,
		auditLogger: mw.NewAuditLogger(pool, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.auditLogger.Middleware)

		// Patch jobs
		job := handler.NewPatchJob(s.services)
		r.Get("/patch-jobs", job.List)
		r.Post("/patch-jobs", job.Create)
		r.Get("/patch-jobs/{id}", job.Get)
		r.Put("/patch-jobs/{id}", job.Update)
		r.Delete("/patch-jobs/{id}", job.Delete)
		r.Patch("/patch-jobs/{id}/start", job.Start)
		r.Patch("/patch-jobs/{id}/pause", job.Pause)
		r.Patch("/patch-jobs/{id}/resume", job.Resume)
		r.Patch("/patch-jobs/{id}/cancel", job.Cancel)
		r.Patch("/patch-jobs/{id}/complete", job.Complete)
		r.Patch("/patch-jobs/{id}/fail", job.Fail)

		// Job targets
		target := handler.NewPatchJobTarget(s.services)
		r.Get("/patch-jobs/{id}/targets", target.ListTargets)
		r.Post("/patch-jobs/{id}/targets", target.CreateTargets)
		r.Put("/patch-job-targets/{id}", target.UpdateTarget)

		// Job dependencies
		dependency := handler.NewPatchJobDependency(s.services)
		r.Get("/patch-jobs/{id}/dependencies", dependency.List)
		r.Post("/patch-jobs/{id}/dependencies", dependency.Create)
		r.Get("/patch-jobs/{id}/can-start", dependency.CanStart)
		r.Delete("/patch-job-dependencies/{id}", dependency.Delete)

		// Job logs
		jobLog := handler.NewPatchJobLog(s.services)
		r.Get("/patch-jobs/{id}/logs", jobLog.List)
		r.Post("/patch-jobs/{id}/logs", jobLog.Append)

		// Patch schedules
		schedule := handler.NewPatchSchedule(s.services)
		r.Get("/patch-schedules", schedule.List)
		r.Post("/patch-schedules", schedule.Create)
		r.Get("/patch-schedules/due", schedule.ListDue)
		r.Get("/patch-schedules/{id}", schedule.Get)
		r.Put("/patch-schedules/{id}", schedule.Update)
		r.Delete("/patch-schedules/{id}", schedule.Delete)
		r.Patch("/patch-schedules/{id}/activate", schedule.Activate)
		r.Patch("/patch-schedules/{id}/pause", schedule.Pause)
		r.Patch("/patch-schedules/{id}/disable", schedule.Disable)
		r.Post("/patch-schedules/{id}/execute", schedule.Execute)
		r.Get("/patch-schedules/{id}/executions", schedule.ListExecutions)

		// Schedule conditions and exclusions
		r.Get("/patch-schedules/{id}/conditions", schedule.ListConditions)
		r.Post("/patch-schedules/{id}/conditions", schedule.CreateCondition)
		r.Delete("/schedule-conditions/{id}", schedule.DeleteCondition)
		r.Get("/patch-schedules/{id}/exclusions", schedule.ListExclusions)
		r.Post("/patch-schedules/{id}/exclusions", schedule.CreateExclusion)
		r.Delete("/schedule-exclusions/{id}", schedule.DeleteExclusion)

		// Analytics
		analytics := handler.NewAnalytics(s.services)
		r.Get("/analytics/patch-jobs", analytics.Jobs)
		r.Get("/analytics/patch-schedules", analytics.Schedules)

		// API keys
		apiKey := handler.NewAPIKey(s.services)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Get("/api-keys/{id}", apiKey.Get)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

// Close flushes the async audit logger.
func (s *Server) Close() {
	s.auditLogger.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
