package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/api"
	"github.com/ppnshub/notification-hub/internal/config"
	"github.com/ppnshub/notification-hub/internal/cryptobox"
	"github.com/ppnshub/notification-hub/internal/db"
	"github.com/ppnshub/notification-hub/internal/eventssink"
	"github.com/ppnshub/notification-hub/internal/gateway"
	"github.com/ppnshub/notification-hub/internal/metrics"
	"github.com/ppnshub/notification-hub/internal/ratelimiter"
	"github.com/ppnshub/notification-hub/internal/repository"
	"github.com/ppnshub/notification-hub/internal/service"
	"github.com/ppnshub/notification-hub/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	mongoClient, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx) //nolint:errcheck

	database := mongoClient.Database(cfg.MongoDBName)
	if err := db.EnsureIndexes(ctx, database, cfg); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}
	logger.Info("mongo indexes ensured")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	boxRepo := repository.NewMongoBoxRepository(database)
	clientRepo := repository.NewMongoClientRepository(database)
	sealer := cryptobox.New(cfg.EncryptionKey)
	notifications := repository.NewMongoNotificationStore(database, boxRepo, sealer, logger)

	gw := gateway.New(cfg.OutboundNotificationsURL, cfg.GatewayAuthToken, cfg.GatewayTimeout)
	events := eventssink.New(cfg.APIPlatformEventsURL, cfg.GatewayTimeout, logger)
	limiter := ratelimiter.New(cfg.PushRatePerSecond)

	boxes := service.NewBoxRegistry(boxRepo, logger)
	clients := service.NewClientRegistry(clientRepo)
	dispatcher := service.NewPushDispatcher(gw, limiter, logger)
	delivery := service.NewDeliveryCoordinator(boxes, clients, notifications, dispatcher, cfg.RetryInitialInterval, logger)
	callbacks := service.NewCallbackValidator(boxes, gw, events, logger)

	// ---- background workers ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	sweeper := worker.NewRetrySweeper(
		notifications, dispatcher, clients,
		cfg.SweepInterval, cfg.RetryInitialInterval, cfg.RetryMaxInterval, cfg.RetryWindow,
		m, logger,
	)

	var workersDone sync.WaitGroup
	workersDone.Add(1)
	go func() {
		defer workersDone.Done()
		sweeper.Run(workerCtx)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(boxes, delivery, callbacks, notifications, reg, cfg.NumberOfNotificationsToRetrievePerRequest, cfg.WhitelistedUserAgents, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal the retry sweeper to stop; it returns after the item in hand.
	cancelWorkers()

	// 3. Wait for it to finish.
	workersDone.Wait()

	logger.Info("server stopped cleanly")
}
