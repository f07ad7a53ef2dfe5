// Package api provides the HTTP API of the gallery CMS: JSON operations
// registered with huma, multipart upload routes on chi, the realtime event
// stream and the metrics endpoint.
package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/metrics"
	"github.com/galeriaarte/galeria-server/internal/ratelimit"
	"github.com/galeriaarte/galeria-server/internal/sse"
	"github.com/galeriaarte/galeria-server/internal/validation"
)

// maxUploadBytes bounds a multipart request body.
const maxUploadBytes = 64 << 20

// Deps are the collaborators of a Server. Search, Health, SSE and Metrics
// may be nil.
type Deps struct {
	Config   *config.Config
	Services *Services
	Stores   *Stores
	Verifier *auth.Verifier
	Search   WorkSearcher
	Health   Pinger
	SSE      *sse.Manager
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	config        *config.Config
	services      *Services
	stores        *Stores
	verifier      *auth.Verifier
	search        WorkSearcher
	health        Pinger
	sseManager    *sse.Manager
	metrics       *metrics.Metrics
	validator     *validation.Validator
	uploadLimiter *ratelimit.KeyedRateLimiter
	router        *chi.Mux
	api           huma.API
	logger        *logger.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(deps Deps) *Server {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	rps, burst := cfg.Server.UploadRPS, cfg.Server.UploadBurst
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 10
	}

	s := &Server{
		config:        cfg,
		services:      deps.Services,
		stores:        deps.Stores,
		verifier:      deps.Verifier,
		search:        deps.Search,
		health:        deps.Health,
		sseManager:    deps.SSE,
		metrics:       deps.Metrics,
		validator:     validation.New(),
		uploadLimiter: ratelimit.New(rps, burst),
		router:        chi.NewRouter(),
		logger:        deps.Logger.Component("api"),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Galería API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerWorkRoutes()
	s.registerInspirationRoutes()
	s.registerCatalogRoutes()
	s.registerUploadRoutes()
	s.registerStreamRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, e.g. for exporting the OpenAPI document.
func (s *Server) API() huma.API { return s.api }

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.uploadLimiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.verifier, s.preloader(), s.logger))
}

func (s *Server) registerStreamRoutes() {
	if s.sseManager != nil {
		s.router.Get("/api/v1/realtime/stream", sse.NewHandler(s.sseManager, s.logger).ServeHTTP)
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}
