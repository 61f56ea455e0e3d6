// Package http implements C6's per-worker HTTP front end: request
// pipeline, strategy dispatch, error mapping, and graceful shutdown,
// generalized from the teacher's adapters/driving/http package of the
// same name.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/abrsearch/core/internal/adapters/driven/auth"
	"github.com/abrsearch/core/internal/core/ports/driving"
)

// Config wires a Server's collaborators and tunables.
type Config struct {
	SearchService  driving.SearchService
	IngestService  driving.IngestService
	Operator       *auth.Operator // nil serves the ingest endpoint without the operator guard
	AllowedOrigins []string
	Logger         *slog.Logger
	ShutdownTimeout time.Duration

	// IngestDefaults carries the operator-configured ETL tuning (spec
	// §6.3's etl.* keys) applied to every POST /api/v1/ingest run, so
	// the HTTP path and the seed CLI share identical ETL semantics.
	// Its FilePath is ignored; handleIngest overrides it per request.
	IngestDefaults driving.IngestOptions
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// Server is one worker process's HTTP front end. It holds its own
// Repository-backed services; pools are never shared across worker
// processes (SPEC_FULL §C6).
type Server struct {
	cfg             Config
	searchService   driving.SearchService
	ingestService   driving.IngestService
	logger          *slog.Logger
	startedAt       time.Time
	httpServer      *http.Server
}

// NewServer wires routes and middleware, following the teacher's
// NewServer + setupRoutes split.
func NewServer(cfg Config) *Server {
	cfg.applyDefaults()

	s := &Server{
		cfg:           cfg,
		searchService: cfg.SearchService,
		ingestService: cfg.IngestService,
		logger:        cfg.Logger,
		startedAt:     time.Now(),
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger, handler)
	handler = recoveryMiddleware(s.logger, handler)
	handler = corsMiddleware(cfg.AllowedOrigins, handler)

	s.httpServer = &http.Server{Handler: handler}
	return s
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/businesses/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/businesses/{abn}", s.handleGetByABN)

	ingest := http.HandlerFunc(s.handleIngest)
	if s.cfg.Operator != nil {
		mux.Handle("POST /api/v1/ingest", requireOperator(s.cfg.Operator, s.logger, ingest))
	} else {
		mux.Handle("POST /api/v1/ingest", ingest)
	}
}

// Handler returns the fully wrapped request pipeline (routes plus
// logging/recovery/CORS middleware), for callers that drive the
// server through an in-process http.Handler rather than a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on l until the server is shut down. The
// listener is supplied by internal/cluster, which binds it with
// SO_REUSEPORT so every worker shares the same address.
func (s *Server) Serve(l net.Listener) error {
	err := s.httpServer.Serve(l)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests (spec §4.6.5 steps 1-2) within
// ShutdownTimeout, then returns so the caller can close the
// connection pool (step 3) and exit (step 4).
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
