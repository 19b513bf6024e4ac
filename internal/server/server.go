// Package server exposes discovery over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/model"
	"github.com/aeolive/competitor-cli/internal/store"
)

// Discoverer runs one tagged discovery.
type Discoverer interface {
	Discover(ctx context.Context, domain string) *model.DiscoveryResult
}

// Options configures the HTTP API.
type Options struct {
	Catalog        *catalog.Catalog
	Discoverer     Discoverer
	Store          store.Store // nil disables the run endpoints
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	// TrustProxyHeaders keys clients by X-Forwarded-For/X-Real-IP instead
	// of the peer address.
	TrustProxyHeaders bool
	RequestTimeout    time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	cat        *catalog.Catalog
	discoverer Discoverer
	store      store.Store
	limiter    *clientLimiter
	validate   *validator.Validate
	origins    []string
	trustProxy bool
	timeout    time.Duration
}

// New creates a Server. Zero rate settings fall back to 2 rps with a burst of 5.
func New(opts Options) *Server {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 2
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		cat:        opts.Catalog,
		discoverer: opts.Discoverer,
		store:      opts.Store,
		limiter:    newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst, 10*time.Minute),
		validate:   validator.New(),
		origins:    opts.AllowedOrigins,
		trustProxy: opts.TrustProxyHeaders,
		timeout:    opts.RequestTimeout,
	}
}

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.With(s.limiter.middleware).Post("/discover", s.handleDiscover)
		r.Get("/industries", s.handleIndustries)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}
