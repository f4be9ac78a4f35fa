// Package server exposes one annotation session over HTTP.
//
// All endpoints speak JSON. Errors are rendered by httputil.WriteError as
// {"code","message"} with a status derived from the error code.
//
//	GET    /health
//	GET    /api/state
//	GET    /api/annotations[?node=id]
//	POST   /api/annotations
//	GET    /api/annotations/{id}
//	PATCH  /api/annotations/{id}
//	DELETE /api/annotations/{id}
//	POST   /api/annotations/{id}/nodes
//	DELETE /api/annotations/{id}/nodes
//	DELETE /api/annotations
//	PUT    /api/selection
//	PUT    /api/selection/mode
//	PUT    /api/ui
//	PATCH  /api/preferences
//	GET    /api/connected?nodes=a,b
//	GET    /api/diagram
//	GET    /api/colors
//	POST   /api/save
//	GET    /api/events
//	GET    /metrics
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/patternmark/pkg/errors"
	"github.com/matzehuels/patternmark/pkg/graph"
	"github.com/matzehuels/patternmark/pkg/session"
)

const shutdownTimeout = 5 * time.Second

// Server serves a single session.
type Server struct {
	sess     *session.Session
	diagram  *graph.Diagram
	logger   *log.Logger
	gatherer prometheus.Gatherer
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithDiagram enables /api/connected and /api/diagram.
func WithDiagram(d graph.Diagram) Option {
	return func(s *Server) { s.diagram = &d }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry served on /metrics. The default is
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// New builds the router for sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		sess:     sess,
		logger:   log.New(io.Discard),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/events", s.events)

		r.Route("/annotations", func(r chi.Router) {
			r.Get("/", s.listAnnotations)
			r.Post("/", s.createAnnotation)
			r.Delete("/", s.clearAnnotations)
			r.Get("/{id}", s.getAnnotation)
			r.Patch("/{id}", s.updateAnnotation)
			r.Delete("/{id}", s.deleteAnnotation)
			r.Post("/{id}/nodes", s.addNodes)
			r.Delete("/{id}/nodes", s.removeNodes)
		})

		r.Put("/selection", s.putSelection)
		r.Put("/selection/mode", s.putSelectionMode)
		r.Put("/ui", s.putUI)
		r.Patch("/preferences", s.patchPreferences)
		r.Get("/colors", s.getColors)
		r.Get("/connected", s.getConnected)
		r.Get("/diagram", s.getDiagram)
		r.Post("/save", s.save)
	})
	return r
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("serving annotations", "addr", ln.Addr().String(), "doc", s.sess.Name())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
