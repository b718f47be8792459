// Package api serves the pricing engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/scan"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
)

const maxBodyBytes = 1 << 20

// Server holds the handlers' dependencies.
type Server struct {
	engine      *scorer.Engine
	session     *scan.Session
	history     store.Store
	metrics     *Metrics
	corsOrigins []string
	timeout     time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithSession enables the scan endpoints.
func WithSession(s *scan.Session) Option {
	return func(srv *Server) { srv.session = s }
}

// WithHistory enables the history and rescore endpoints.
func WithHistory(st store.Store) Option {
	return func(srv *Server) { srv.history = st }
}

// WithCORSOrigins sets the allowed CORS origins. Default: any.
func WithCORSOrigins(origins []string) Option {
	return func(srv *Server) {
		if len(origins) > 0 {
			srv.corsOrigins = origins
		}
	}
}

// WithTimeout bounds each request. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.timeout = d
		}
	}
}

// New creates a Server. A nil engine uses scorer.Default.
func New(engine *scorer.Engine, opts ...Option) *Server {
	if engine == nil {
		engine = scorer.Default()
	}
	s := &Server{
		engine:      engine,
		metrics:     NewMetrics(),
		corsOrigins: []string{"*"},
		timeout:     60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/triangulate", s.handleTriangulate)
		r.Post("/profit", s.handleProfit)
		r.Post("/sell-through", s.handleSellThrough)
		r.Post("/broaden", s.handleBroaden)
		r.Post("/suggest", s.handleSuggest)

		r.Post("/scans", s.handleScan)
		r.Get("/scans", s.handleListScans)
		r.Get("/scans/{id}", s.handleGetScan)
		r.Delete("/scans/{id}", s.handleDeleteScan)
		r.Post("/scans/{id}/rescore", s.handleRescore)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v, rejecting oversized or malformed input.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
