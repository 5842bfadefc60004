package httpapi

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/zpages/internal/health"
	apimw "github.com/hamed0406/zpages/internal/httpapi/middleware"
	"github.com/hamed0406/zpages/internal/info"
)

// VersionFunc supplies the body of the /version endpoint.
type VersionFunc func() string

// DefaultVersion reads the VERSION environment variable.
func DefaultVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "unknown"
}

// Options carries the request-independent settings of the management
// endpoints.
type Options struct {
	Prefix                  string // mount point, e.g. "/z"
	AppName                 string
	Version                 VersionFunc // nil means DefaultVersion
	EnableServiceInstanceID bool
}

// Server exposes the management endpoints under a common prefix. A
// dependency being down is a 503 with a descriptive body, never a 500.
type Server struct {
	Logger     *zap.Logger
	Aggregator *health.Aggregator
	opts       Options
}

func NewServer(logger *zap.Logger, agg *health.Aggregator, opts Options) *Server {
	if opts.Prefix == "" {
		opts.Prefix = "/z"
	}
	if opts.Version == nil {
		opts.Version = DefaultVersion
	}
	return &Server{Logger: logger, Aggregator: agg, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(apimw.RequestLog(s.Logger, s.opts.Prefix))

	r.Route(s.opts.Prefix, func(r chi.Router) {
		r.Get("/info", s.handleInfo)
		r.Get("/version", s.handleVersion)
		r.Get("/health", s.handleHealth)
		r.Get("/health/liveness", s.handleLiveness)
		r.Get("/health/ping", s.handleLiveness)
		r.Get("/health/readiness", s.handleReadiness)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, s.Aggregator.Aggregate(r.Context(), health.CategoryFull))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, s.Aggregator.Aggregate(r.Context(), health.CategoryReadiness))
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeReport(w, s.Aggregator.Aggregate(r.Context(), health.CategoryLiveness))
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.opts.Version()))
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	attrs := info.Attributes(s.opts.AppName, s.opts.Version(), s.opts.EnableServiceInstanceID)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(attrs)
}

func (s *Server) writeReport(w http.ResponseWriter, rep health.Report) {
	status := http.StatusOK
	if rep.Status == health.StatusDown {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rep)
}
