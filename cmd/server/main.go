package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/koyo/danmu/internal/adapters/http"
	"github.com/koyo/danmu/internal/adapters/livewatch"
	wsignal "github.com/koyo/danmu/internal/adapters/signal"
	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/config"
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	rooms := core.NewRegistry(core.RoomConfig{
		BacklogLimit:   cfg.BacklogLimit,
		ActivityWindow: cfg.ActivityWindow,
		Filter:         core.NewFilter(cfg.Denylist),
	})
	gw := app.NewGateway(rooms, app.KickSlowPolicy{})
	resolver := identity.NewHTTPResolver(cfg.APIURL)
	limiter := wsignal.NewRateLimiter(cfg.PostLimit, cfg.PostInterval)
	ctl := wsignal.NewController(gw, resolver, limiter, cfg.ReadLimit, cfg.PingPeriod)

	if cfg.MediaPath != "" {
		watcher := livewatch.New(cfg.MediaPath, domain.RoomID(cfg.MediaRoom), gw, cfg.PollInterval)
		go watcher.Run(ctx)
	}

	r := router.SetupRouter(ctx, cfg, gw, resolver, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("danmu server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
