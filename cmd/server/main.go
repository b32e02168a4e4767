// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockrisk/internal/api"
	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/integrations/googlesheets"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/andresuchdata/stockrisk/internal/repository/postgres"
	"github.com/andresuchdata/stockrisk/internal/scheduler"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/andresuchdata/stockrisk/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "release" {
		logger.Setup(os.Stdout, true)
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	logger.SetLevel(cfg.Log.Level)

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	queryCache, err := cache.NewQueryCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize query cache")
	}

	querier := repository.NewCachedQuerier(db, queryCache)
	repo := repository.NewStockMetricsRepository(querier, cfg.Database.Schema, cfg.Database.Table)
	riskService := service.NewRiskService(repo, querier)

	var sched *scheduler.Scheduler
	if cfg.Report.Enabled {
		sched = startScheduler(cfg, riskService)
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{RiskService: riskService, Database: db}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// startScheduler wires whichever export destinations are configured. A
// destination that fails to initialize is logged and skipped.
func startScheduler(cfg *config.Config, riskService *service.RiskService) *scheduler.Scheduler {
	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Object storage disabled")
		} else {
			store = client
		}
	}

	var publisher scheduler.SheetPublisher
	if cfg.Sheets.Enabled {
		p, err := googlesheets.NewPublisher(context.Background(), cfg.Sheets)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Sheets publishing disabled")
		} else {
			publisher = p
		}
	}

	job := scheduler.NewExportJob(riskService, store, publisher, cfg.Storage.Prefix, cfg.Report.FileName)
	sched := scheduler.NewScheduler(job)
	if err := sched.Start(cfg.Report.Schedule); err != nil {
		logger.Log.Error().Err(err).Msg("Scheduled export disabled")
		return nil
	}
	return sched
}
