package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairlink/internal/core/services"
	httphandlers "pairlink/internal/handlers/http"
	"pairlink/internal/infrastructure/middleware"
	"pairlink/internal/infrastructure/monitoring"
	"pairlink/internal/infrastructure/repositories/memory"
	signalws "pairlink/internal/infrastructure/signal"
	"pairlink/pkg/config"
	"pairlink/pkg/logger"
	"pairlink/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := os.Getenv("PAIRLINK_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()
	sugar := log.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize tracing", "error", err)
	}

	// Registries: process-wide in-memory state, one ownership domain.
	users := memory.NewMemoryUserRepository()
	rooms := memory.NewMemoryRoomRepository()
	messages := memory.NewMemoryMessageLog()
	state := services.NewState(users, rooms, messages)

	sessions := services.NewSessionService(state, sugar)
	relay := services.NewRelayService(state, sugar)

	var collector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	wsServer := signalws.NewWebSocketServer(sessions, relay, collector, sugar)
	wsServer.SetPingInterval(cfg.Signal.PingInterval)
	wsServer.SetPongTimeout(cfg.Signal.PongTimeout)
	wsServer.SetWriteTimeout(cfg.Signal.WriteTimeout)
	if cfg.RateLimiting.Enabled {
		wsServer.SetMessageLimit(cfg.RateLimiting.WebSocket.MessagesPerSecond, cfg.RateLimiting.WebSocket.Burst)
		wsServer.SetMaxMessageSize(cfg.RateLimiting.WebSocket.MaxMessageSizeBytes)
	}

	health := monitoring.NewHealthChecker()
	health.AddCheck("registries", func(ctx context.Context) (bool, error) {
		_, _, err := sessions.Stats(ctx)
		return err == nil, err
	}, 2*time.Second)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	handler := httphandlers.NewSignalHandler(wsServer, sessions, health, cfg.Monitoring.PrometheusEnabled)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("starting pairlink signaling server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("forced shutdown", "error", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		sugar.Errorw("tracer shutdown failed", "error", err)
	}
}
