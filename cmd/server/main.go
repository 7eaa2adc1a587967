// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockcast/internal/analytics"
	"github.com/andresuchdata/stockcast/internal/api"
	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/festival"
	"github.com/andresuchdata/stockcast/internal/forecast"
	"github.com/andresuchdata/stockcast/internal/profit"
	"github.com/andresuchdata/stockcast/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/internal/service"
	"github.com/andresuchdata/stockcast/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	queryCache, err := cache.NewQueryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Query cache unavailable, continuing without it")
		queryCache = cache.NewNoopQueryCache()
	}

	transactions := postgres.NewTransactionRepository(db)
	products := postgres.NewProductRepository(db)
	snapshots := postgres.NewSnapshotRepository(db)
	festivals := postgres.NewFestivalRepository(db)

	forecastTimeout := time.Duration(cfg.Forecast.TimeoutSeconds) * time.Second

	services := &api.Services{
		Inventory: service.NewInventoryService(snapshots, products, service.NewConsumptionEstimator(transactions), queryCache),
		Analytics: analytics.NewService(transactions, queryCache),
		Profit:    profit.NewEngine(transactions, products),
		Forecast: forecast.NewEngine(
			forecast.NewClient(cfg.Forecast.ServiceURL, forecastTimeout),
			forecast.NewFallback(transactions),
			products,
			forecastTimeout,
		),
		Festivals: festival.NewCache(
			festivals,
			festival.NewCalendarClient(cfg.Festival.CalendarBaseURL, 10*time.Second),
			cfg.Festival.CountryCode,
			time.Duration(cfg.Festival.MaxAgeHours)*time.Hour,
		),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
