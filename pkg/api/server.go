package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/slnreload/pkg/dependencies"
	"github.com/platinummonkey/slnreload/pkg/httputil"
	"github.com/platinummonkey/slnreload/pkg/msbuild"
	"github.com/platinummonkey/slnreload/pkg/observability"
	"github.com/platinummonkey/slnreload/pkg/projectpath"
	"github.com/platinummonkey/slnreload/pkg/reload"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// ClosureResolver computes closures for the read-only routes
type ClosureResolver interface {
	Resolve(ctx context.Context, root string) (*dependencies.Closure, error)
	ResolveAll(ctx context.Context, roots []string) ([]*dependencies.Closure, error)
}

// Options configures a Server
type Options struct {
	// Solution anchors relative root paths: they resolve against its directory.
	// When empty, relative roots resolve against the working directory.
	Solution projectpath.Path

	// Registry is served on /metrics when set
	Registry *prometheus.Registry

	// Health backs /health; a checker without checks is used when nil
	Health *observability.HealthChecker

	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	router   *mux.Router
	resolver ClosureResolver
	service  *reload.Service
	opts     Options
	log      *logrus.Logger
	metrics  *observability.Metrics
}

// NewServer creates a new API server
func NewServer(resolver ClosureResolver, service *reload.Service, opts Options, log *logrus.Logger, metrics *observability.Metrics) *Server {
	if log == nil {
		log = logrus.New()
	}
	if opts.Health == nil {
		opts.Health = observability.NewHealthChecker("")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		router:   mux.NewRouter(),
		resolver: resolver,
		service:  service,
		opts:     opts,
		log:      log,
		metrics:  metrics,
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.router.Use(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		httputil.RecoveryMiddleware(s.log),
		observability.HTTPMetricsMiddleware(s.metrics),
	)

	s.router.HandleFunc("/health", s.opts.Health.Readiness).Methods("GET")
	s.router.HandleFunc("/health/live", s.opts.Health.Liveness).Methods("GET")
	s.router.HandleFunc("/health/ready", s.opts.Health.Readiness).Methods("GET")
	if s.opts.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.opts.Registry)).Methods("GET")
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(httputil.Chain(
		httputil.MaxBytesMiddleware(s.opts.MaxBodyBytes),
		httputil.ContentTypeMiddleware,
	))

	api.HandleFunc("/closure", s.getClosure).Methods("GET")
	api.HandleFunc("/closure/graph", s.getClosureGraph).Methods("GET")
	api.HandleFunc("/closure/dependencies", s.getDependencies).Methods("GET")
	api.HandleFunc("/closure/dependents", s.getDependents).Methods("GET")
	api.HandleFunc("/projects/unloaded", s.listUnloaded).Methods("GET")
	api.HandleFunc("/projects/loaded", s.listLoaded).Methods("GET")
	api.HandleFunc("/reload", s.reloadWithReferences).Methods("POST")
	api.HandleFunc("/reload-all", s.reloadAll).Methods("POST")
	api.HandleFunc("/unload-all", s.unloadAll).Methods("POST")
}

// absRoots anchors relative roots at the configured solution
func (s *Server) absRoots(roots []string) ([]string, error) {
	if s.opts.Solution == "" {
		return roots, nil
	}
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		p, err := projectpath.Resolve(s.opts.Solution, root)
		if err != nil {
			return nil, err
		}
		out = append(out, string(p))
	}
	return out, nil
}

// writeError maps domain errors to HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.FromContext(r.Context(), s.log).WithError(err)

	var hostErr *reload.HostError
	switch {
	case msbuild.IsProjectRead(err), msbuild.IsUnresolvedReference(err):
		log.Warn("Closure resolution failed")
		httputil.WriteDetailedError(w, http.StatusUnprocessableEntity, err, map[string]string{
			"project": string(msbuild.OffendingProject(err)),
		})
	case dependencies.IsResolutionTimeout(err), errors.Is(err, context.DeadlineExceeded):
		log.Warn("Closure resolution exceeded its bound")
		httputil.WriteError(w, http.StatusGatewayTimeout, err)
	case errors.Is(err, dependencies.ErrNotInClosure):
		httputil.WriteError(w, http.StatusNotFound, err)
	case errors.As(err, &hostErr):
		log.Error("Host operation failed")
		httputil.WriteDetailedError(w, http.StatusBadGateway, err, hostDetails(hostErr))
	case errors.Is(err, projectpath.ErrEmptyReference),
		errors.Is(err, projectpath.ErrInvalidReference),
		errors.Is(err, projectpath.ErrNotAbsolute):
		httputil.WriteBadRequest(w, err.Error())
	default:
		log.Error("Request failed")
		httputil.WriteInternalError(w, err)
	}
}

// writeOperationError reports a host failure along with the partial report
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, report *reload.Report, err error) {
	var hostErr *reload.HostError
	if report == nil || !errors.As(err, &hostErr) {
		s.writeError(w, r, err)
		return
	}

	observability.FromContext(r.Context(), s.log).WithError(err).
		WithField("operation_id", report.ID).
		Error("Host operation failed part way")
	httputil.WriteJSON(w, http.StatusBadGateway, OperationErrorResponse{
		ErrorResponse: httputil.ErrorResponse{
			Error:   err.Error(),
			Details: hostDetails(hostErr),
		},
		Report: report,
	})
}

func hostDetails(err *reload.HostError) map[string]string {
	details := map[string]string{"operation": err.Op}
	if err.Project != "" {
		details["project"] = err.Project
	}
	return details
}
