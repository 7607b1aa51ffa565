// Package api serves the scoring engine, catalog and market data over a JSON
// HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/strategy-cli/internal/analysis"
	"github.com/sells-group/strategy-cli/internal/catalog"
	"github.com/sells-group/strategy-cli/internal/config"
	"github.com/sells-group/strategy-cli/internal/market"
	"github.com/sells-group/strategy-cli/internal/resilience"
)

// Market is the market data the API exposes.
type Market interface {
	Overview(ctx context.Context, indices []catalog.Index) []market.IndexQuote
	Returns(ctx context.Context, symbol, rangeSpec string) (*market.ReturnStats, error)
	BreakerState() resilience.State
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	server   *http.Server
	catalog  *catalog.Catalog
	analysis *analysis.Service
	market   Market
}

// New creates a Server. mkt may be nil, in which case market endpoints
// answer 503.
func New(cfg config.ServerConfig, cat *catalog.Catalog, svc *analysis.Service, mkt Market) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		catalog:  cat,
		analysis: svc,
		market:   mkt,
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(cfg config.ServerConfig) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s.router.Use(middleware.Timeout(timeout))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/indices", s.handleIndices)
		r.Get("/strategy", s.handleStrategy)

		r.Route("/sectors", func(r chi.Router) {
			r.Get("/", s.handleSectors)
			r.Get("/{sector}", s.handleSector)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.handleCompanies)
			r.Get("/{query}/analysis", s.handleAnalysis)
		})

		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/portfolio", s.handlePortfolio)
		r.Get("/markets/{symbol}/returns", s.handleReturns)
	})
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	zap.L().Info("api: starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("api: shutting down server")
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
