package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gocard/gateway/internal/cache"
	"gocard/gateway/internal/clientstate"
	"gocard/gateway/internal/config"
	"gocard/gateway/internal/handlers"
	"gocard/gateway/internal/jobs"
	"gocard/gateway/internal/log"
	"gocard/gateway/internal/server"
	"gocard/gateway/internal/upstream"
	"gocard/gateway/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var redisClient *redis.Client
	var state clientstate.Store
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		state = clientstate.NewRedisStore(redisClient)
	} else {
		logger.Info().Msg("redis disabled, using in-memory client state")
		state = clientstate.NewMemoryStore()
	}

	client := upstream.NewClient(cfg.Upstream, logger)
	handlerSet := handlers.NewHandlerSet(logger, cfg, client, state)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	hub := handlerSet.Hub()
	go hub.Run()

	scheduler := jobs.NewScheduler(logger)
	for name, sweeper := range handlerSet.Sweepers() {
		scheduler.Register(name, sweeper)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, hub, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, hub *ws.Hub, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()
	hub.Stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("gateway exited cleanly")
}
