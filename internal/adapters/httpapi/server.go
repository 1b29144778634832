// Package httpapi exposes the audit service, photo index and exports over
// HTTP.
package httpapi

import (
	"auditcore/internal/adapters/exports"
	"auditcore/internal/core"
	"auditcore/internal/photos"
	"auditcore/internal/platform/metrics"
	"auditcore/internal/session"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server holds the collaborators of the HTTP handlers.
type Server struct {
	audits  *core.Service
	photos  *photos.Index
	exports *exports.Generator
	jobs    *exports.Worker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request latency and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithJobs enables the asynchronous export routes.
func WithJobs(w *exports.Worker) Option {
	return func(s *Server) { s.jobs = w }
}

// New constructs a server.
func New(svc *core.Service, ix *photos.Index, gen *exports.Generator, opts ...Option) *Server {
	s := &Server{audits: svc, photos: ix, exports: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireSession)

		r.Post("/audits", s.createAudit)
		r.Get("/audits", s.listAudits)
		r.Route("/audits/{id}", func(r chi.Router) {
			r.Get("/", s.getAudit)
			r.Put("/", s.saveAudit)
			r.Delete("/", s.deleteAudit)
			r.Post("/complete", s.completeAudit)
			r.Post("/floors", s.addFloor)
			r.Delete("/floors/{floorID}", s.removeFloor)

			r.Post("/photos", s.uploadPhotos)
			r.Get("/photos", s.listPhotos)

			r.Get("/export/hot2000", s.exportHandler(exports.FormatH2K))
			r.Get("/export/pdf", s.exportHandler(exports.FormatPDF))
			if s.jobs != nil {
				r.Post("/exports", s.enqueueExport)
			}
		})
		r.Get("/photos/{photoID}", s.getPhoto)
		r.Delete("/photos/{photoID}", s.deletePhoto)

		if s.jobs != nil {
			r.Get("/exports/{jobID}", s.getExport)
			r.Get("/exports/{jobID}/download", s.downloadExport)
		}
		r.Get("/reports/roster.xlsx", s.roster)
	})
	return r
}

// requireSession binds the caller named by the X-User-ID header to the
// request context.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := session.WithSession(r.Context(), session.Session{UserID: r.Header.Get(session.HeaderUserID)})
		if _, ok := session.FromContext(ctx); !ok {
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe logs each request and records its latency by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, status, elapsed)
		}
		s.logger.Debug("request served",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed))
	})
}
