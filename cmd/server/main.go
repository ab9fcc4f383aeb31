package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/liviocandman/interative-whiteboard-sub000/internal/adapters/http"
	wssignal "github.com/liviocandman/interative-whiteboard-sub000/internal/adapters/signal"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/app"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/config"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/core"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/domain"
	"github.com/liviocandman/interative-whiteboard-sub000/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	st := store.New(rdb, cfg.RoomTTL)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		pingCancel()
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("shared store unreachable")
	}
	pingCancel()
	log.Info().Str("addr", cfg.RedisAddr).Msg("shared store connected")

	registry := app.NewRegistry()
	groups := core.NewGroupManager()
	scheduler := app.NewCleanupScheduler(st, cfg.CleanupDelay)

	pipeline := &app.Pipeline{
		Store:     st,
		Registry:  registry,
		Groups:    groups,
		Cleanup:   scheduler,
		Validate:  domain.NewValidator(),
		UndoDepth: cfg.UndoDepth,
	}

	bridge := app.NewBridge(st, groups)
	go bridge.Run(ctx)

	idle := &app.IdleWatcher{
		Registry: registry,
		Pipeline: pipeline,
		Timeout:  cfg.IdleTimeout,
		Interval: cfg.IdleTimeout / 4,
	}
	go idle.Run(ctx)

	ctl := &wssignal.Controller{
		Pipeline:         pipeline,
		Registry:         registry,
		ReadLimit:        cfg.ReadLimit,
		PingPeriod:       cfg.PingPeriod,
		IdleTimeout:      cfg.IdleTimeout,
		SnapshotMaxBytes: cfg.SnapshotMaxBytes,
		Limiter:          wssignal.NewRateLimiter(cfg.RateLimit, cfg.RateInterval),
	}

	r := router.SetupRouter(ctx, cfg, st, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("whiteboard server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	// Cancel pending room deletions first so a restart does not lose
	// rooms that were momentarily empty.
	scheduler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	<-bridge.Done()
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("Server exited gracefully")
}
