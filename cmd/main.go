package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/db"
	"github.com/senyabanana/clinic-offer-service/internal/handlers"
	"github.com/senyabanana/clinic-offer-service/internal/logger"
	"github.com/senyabanana/clinic-offer-service/internal/repository"
	"github.com/senyabanana/clinic-offer-service/internal/router"
	"github.com/senyabanana/clinic-offer-service/internal/router/config"
	"github.com/senyabanana/clinic-offer-service/internal/router/middleware"
	"github.com/senyabanana/clinic-offer-service/internal/services"
	"github.com/senyabanana/clinic-offer-service/internal/sweeper"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	zlog, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "clinic-offer-service")
	if err != nil {
		log.Fatal("cannot create logger:", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbSource, err := db.ConnString(cfg)
	if err != nil {
		zlog.Fatal("invalid database config", zap.Error(err))
	}
	runDBMigration(zlog, cfg.MigrationURL, dbSource)

	dbPool, err := db.InitDb(ctx, cfg)
	if err != nil {
		zlog.Fatal("error initializing database", zap.Error(err))
	}
	defer dbPool.Close()

	requestRepo := repository.NewPostgresRequestRepository(dbPool)
	offerRepo := repository.NewPostgresOfferRepository(dbPool)
	priceListRepo := repository.NewPostgresPriceListRepository(dbPool)

	requestService := services.NewRequestService(requestRepo, nil)
	offerService := services.NewOfferService(offerRepo, requestRepo, nil)
	priceListService := services.NewPriceListService(priceListRepo, nil)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, zlog)
	go limiter.RunCleanup(ctx, 10*time.Minute)

	sweep := sweeper.NewSweeper(offerService, cfg.SweepInterval, cfg.RequestTimeout, zlog.Named("sweeper"))
	go sweep.Run(ctx)

	routes := router.InitRoutes(router.Handlers{
		Requests:  handlers.NewRequestHandler(requestService, zlog, cfg.RequestTimeout),
		Offers:    handlers.NewOfferHandler(offerService, zlog, cfg.RequestTimeout),
		PriceList: handlers.NewPriceListHandler(priceListService, zlog, cfg.RequestTimeout),
	}, cfg.JWTSecret, limiter, zlog)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server is listening", zap.String("address", cfg.ServerAddress))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("server failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func runDBMigration(zlog *zap.Logger, migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		zlog.Fatal("cannot create a new migrate instance", zap.Error(err))
	}

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		zlog.Fatal("failed to run migrate up", zap.Error(err))
	}
	zlog.Info("db migrated successfully")
}
