package httptransport

import (
	"errors"
	"net/http"

	"geonosis/internal/domain"
	"geonosis/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const serviceName = "Geonosis API"

type Handler struct {
	service     service.Service
	log         *zap.Logger
	metrics     *metrics
	corsOrigins []string
	version     string
}

type Option func(*Handler)

func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) {
		h.log = log
	}
}

func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) {
		h.corsOrigins = origins
	}
}

func WithVersion(version string) Option {
	return func(h *Handler) {
		h.version = version
	}
}

func NewHandler(svc service.Service, opts ...Option) *Handler {
	h := &Handler{
		service: svc,
		log:     zap.NewNop(),
		metrics: newMetrics(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))
	r.Use(h.metrics.instrument)
	if len(h.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", h.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Patch("/", h.UpdateProject)
				r.Delete("/", h.DeleteProject)
				r.Get("/features", h.GetProjectWithFeatures)
				r.Get("/logs", h.ListAgentLogs)
				r.Post("/logs", h.AppendAgentLog)
			})
		})

		r.Route("/features", func(r chi.Router) {
			r.Post("/", h.CreateFeature)
			r.Post("/bulk", h.BulkCreateFeatures)
			r.Get("/project/{project_id}", h.ListFeatures)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetFeature)
				r.Patch("/", h.UpdateFeature)
				r.Delete("/", h.DeleteFeature)
				r.Put("/status", h.UpdateFeatureStatus)
				r.Get("/pbis", h.ListPBIs)
				r.Post("/pbis", h.CreatePBI)
			})
		})

		r.Route("/pbis/{id}", func(r chi.Router) {
			r.Get("/", h.GetPBI)
			r.Patch("/", h.UpdatePBI)
			r.Delete("/", h.DeletePBI)
			r.Put("/blocker", h.SetBlocker)
			r.Get("/blocking", h.Blocking)
		})
	})

	return r
}

func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"status":  "operational",
		"version": h.version,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrDependencyCycle):
		respondError(w, http.StatusConflict, "DEPENDENCY_CYCLE", err.Error())
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	message := "invalid request body"
	if errors.Is(err, errEmptyBody) {
		message = err.Error()
	}
	respondError(w, http.StatusBadRequest, "BAD_REQUEST", message)
}
