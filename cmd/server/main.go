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

	"tpcc-service/config"
	"tpcc-service/internal/api"
	"tpcc-service/internal/broker"
	"tpcc-service/internal/redisclient"
	"tpcc-service/internal/service"
	"tpcc-service/internal/store"
	"tpcc-service/internal/util"
	"tpcc-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting tpcc service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer("tpcc-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	var cache service.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache = redisClient
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	var queue service.DeliveryQueue
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDelivery)
		defer producer.Close()
		queue = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	engine := service.NewEngine(db, cache, queue, service.Options{
		PrepareLockTTL: cfg.Engine.PrepareLockTTL,
		LoadSeed:       cfg.Engine.LoadSeed,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var deliveryWorker *worker.DeliveryWorker
	if queue != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDelivery, cfg.Kafka.ConsumerGroup)
		deliveryWorker = worker.NewDeliveryWorker(cfg.Kafka.TopicDelivery, consumer, engine)
		go func() {
			if err := deliveryWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Delivery worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	handler := api.NewHandler(engine)
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

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if deliveryWorker != nil {
		if err := deliveryWorker.Stop(); err != nil {
			logger.Error("Error stopping delivery worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
