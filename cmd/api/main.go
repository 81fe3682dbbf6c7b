package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shelflife/internal/config"
	"shelflife/internal/database"
	"shelflife/internal/logger"
	"shelflife/internal/recognition"
	"shelflife/internal/repository"
	"shelflife/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// buildStorage assembles the repository for the configured driver along with
// its health probe and teardown.
func buildStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.ProductRepository, func() map[string]string, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		dbService, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		if err := database.RunMigrations(dbService.DB(), "migrations", log); err != nil {
			dbService.Close()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed successfully")

		return repository.NewPostgresProductRepository(dbService.DB()), dbService.Health, dbService.Close, nil

	case config.StorageDriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}

		collection := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		repo, err := repository.NewMongoProductRepository(ctx, collection)
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, nil, fmt.Errorf("failed to initialize mongo repository: %w", err)
		}

		cleanup := func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		}
		return repo, nil, cleanup, nil

	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage; products are lost on restart")
		return repository.NewMemoryProductRepository(), nil, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildRedis connects the rate limiter backend. Redis is optional; without it
// the recognition endpoint simply runs unthrottled.
func buildRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Host == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, recognition rate limiting disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting shelf-life tracker API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	// Initialize storage
	repo, health, cleanup, err := buildStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	if health != nil {
		log.Info("Storage health check", zap.Any("health", health()))
	}

	// Initialize recognition
	var recognizer recognition.Recognizer
	if cfg.Recognition.Enabled {
		geminiRecognizer, err := recognition.NewGeminiRecognizer(ctx, cfg.Recognition)
		if err != nil {
			log.Fatal("Failed to initialize recognizer", zap.Error(err))
		}
		recognizer = geminiRecognizer
		log.Info("Product recognition enabled", zap.String("model", cfg.Recognition.Model))
	} else {
		log.Info("Product recognition disabled")
	}

	redisClient := buildRedis(ctx, cfg.Redis, log)

	// Create server
	srv := server.NewServer(cfg, log, server.Dependencies{
		Repository: repo,
		Recognizer: recognizer,
		Redis:      redisClient,
		Health:     health,
		Cleanup:    cleanup,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
