package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-service/config"
	"sales-service/internal/api"
	"sales-service/internal/broker"
	"sales-service/internal/redisclient"
	"sales-service/internal/service"
	"sales-service/internal/store"
	"sales-service/internal/util"
	"sales-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// orderBackend is a store that can also back the readiness probe
type orderBackend interface {
	service.OrderStore
	api.Pinger
	Close() error
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting sales service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("sales-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	backend, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open order store", zap.Error(err))
	}
	defer backend.Close()
	logger.Info("Order store ready", zap.String("backend", cfg.Database.Backend))

	var cache service.OrderCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache = redisClient
		logger.Info("Redis order cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var events service.OrderEventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))
	}

	orderService := service.NewOrderService(backend, cache, events)

	if cfg.BI.Username == "" || cfg.BI.Password == "" || cfg.BI.APIKey == "" {
		logger.Warn("BI credentials incomplete; /bi calls will fail until BI_API_USERNAME, BI_API_PASSWORD and BI_API_KEY are set")
	}
	biProxy := service.NewBIProxy(cfg.BI)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var ingestWorker *worker.IngestWorker
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TopicIngest != "" {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicIngest, cfg.Kafka.ConsumerGroup)
		ingestWorker = worker.NewIngestWorker(consumer, orderService)
		go func() {
			if err := ingestWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Ingest worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, biProxy, backend)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if ingestWorker != nil {
		if err := ingestWorker.Stop(); err != nil {
			logger.Warn("Error stopping ingest worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func openStore(cfg config.DatabaseConfig) (orderBackend, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres", "":
		db, err := store.NewStore(cfg.URL)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Backend)
	}
}
