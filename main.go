package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/seo-optimizer/contentscore/cache"
	"github.com/seo-optimizer/contentscore/config"
	"github.com/seo-optimizer/contentscore/logging"
	"github.com/seo-optimizer/contentscore/server"
	"github.com/seo-optimizer/contentscore/stats"
	"github.com/seo-optimizer/contentscore/store"
)

const (
	maintenanceInterval = time.Hour
	shutdownTimeout     = 10 * time.Second
)

func setupGinMode(mode string) {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(cfg.DevMode, cfg.LogLevel)
	setupGinMode(cfg.GinMode)

	st, err := store.NewStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to open store")
	}
	defer st.Close()

	monthly, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize statistics storage")
	}
	reports := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries, cache.WithRecorder(monthly))
	usage := logging.NewStatistics(cfg.StatisticsPath())

	srv, err := server.New(cfg, st, reports, monthly, usage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.RunMaintenance(ctx, maintenanceInterval)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", "http://localhost:"+cfg.Port).Msg("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	reports.Close()
	if err := monthly.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to flush monthly statistics")
	}
	if err := usage.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save statistics")
	}
}
