package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/xelth-com/stockflow/internal/buildinfo"
	"github.com/xelth-com/stockflow/internal/config"
	"github.com/xelth-com/stockflow/internal/database"
	"github.com/xelth-com/stockflow/internal/events"
	"github.com/xelth-com/stockflow/internal/handlers"
	"github.com/xelth-com/stockflow/internal/logging"
	"github.com/xelth-com/stockflow/internal/middleware"
	"github.com/xelth-com/stockflow/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Init("stockflow", cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := zap.L()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (embedded PostgreSQL when no external server answers)
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(); err != nil {
		logger.Fatal("Schema migration failed", zap.Error(err))
	}

	// 3. Rate limit store, shared through Redis when configured
	var store limiter.Store = middleware.NewMemoryStore()
	if cfg.Redis.Enabled() {
		client, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, using in-memory rate limits", zap.Error(err))
		} else {
			defer client.Close()
			if store, err = middleware.NewRedisStore(client); err != nil {
				logger.Fatal("Failed to create Redis limiter store", zap.Error(err))
			}
		}
	}

	// 4. Stock event fan-out
	hub := websocket.NewHub()
	go hub.Run(ctx)
	publishers := events.Multi{hub}
	if cfg.Kafka.Enabled() {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.StockTopic)
		if err != nil {
			logger.Warn("Kafka unavailable, stock events stay local", zap.Error(err))
		} else {
			defer kafka.Close()
			publishers = append(publishers, kafka)
		}
	}

	// 5. HTTP router
	svc := handlers.NewServices(db, cfg, publishers)
	router, err := handlers.NewRouter(cfg, svc, hub, store)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		info := buildinfo.Current()
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("version", info.Version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Closing the database also stops embedded PostgreSQL
	if err := db.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}
