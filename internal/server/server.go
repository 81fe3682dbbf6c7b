package server

import (
	"fmt"
	"net/http"
	"time"

	"shelflife/internal/config"
	custommiddleware "shelflife/internal/middleware"
	"shelflife/internal/recognition"
	"shelflife/internal/repository"
	"shelflife/internal/service"
	"shelflife/internal/transport"
	"shelflife/internal/watch"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles the backend pieces that main assembles per the
// configured storage driver.
type Dependencies struct {
	Repository repository.ProductRepository
	Recognizer recognition.Recognizer
	Redis      *redis.Client
	Health     func() map[string]string
	Cleanup    func() error
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{
			"status":  "ok",
			"storage": cfg.Storage.Driver,
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				payload[k] = v
			}
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, payload)
	})

	// Initialize services
	hub := watch.NewHub()
	productService := service.NewProductService(deps.Repository, hub, deps.Recognizer)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)

	// Create scope middleware
	scopeMiddleware := custommiddleware.OwnerScopeMiddleware(cfg.Auth.JWTSecret, cfg.Auth.AllowAnonymous, logger)

	// The recognition endpoint is the only expensive one; it alone sits
	// behind the limiter, and only when redis is around to enforce it.
	var recognizeLimiter func(http.Handler) http.Handler
	if deps.Redis != nil {
		recognizeLimiter = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Recognition.RequestsPerMinute,
			Window:            time.Minute,
			KeyPrefix:         "recognize",
		}, logger)
	}

	// Register routes
	productHandler.RegisterRoutes(router, scopeMiddleware, recognizeLimiter)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // SSE streams stay open indefinitely
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.deps.Cleanup != nil {
		if err := s.deps.Cleanup(); err != nil {
			s.logger.Error("Failed to close storage backend", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
