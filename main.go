package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annazecevic/catalog-service/config"
	"github.com/annazecevic/catalog-service/domain"
	"github.com/annazecevic/catalog-service/handler"
	"github.com/annazecevic/catalog-service/logger"
	"github.com/annazecevic/catalog-service/middleware"
	"github.com/annazecevic/catalog-service/repository"
	"github.com/annazecevic/catalog-service/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		ServiceName: "catalog-service",
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		LogFilePath: cfg.LogFilePath,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
		MaxAgeDays:  cfg.LogMaxAgeDays,
	})
	defer logger.GetLogger().Close()

	logger.Info(logger.EventServiceStartup, "Catalog service starting", logger.Fields(
		"port", cfg.ServerPort,
		"environment", cfg.Environment,
		"store", cfg.StoreBackend,
	))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoConnectTimeoutSec)*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, repository.Options{
		Backend:       cfg.StoreBackend,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		SQLitePath:    cfg.SQLitePath,
	})
	if err != nil {
		logger.Fatal(logger.EventDBError, "Failed to open store", logger.Fields(
			"backend", cfg.StoreBackend,
			"uri", cfg.MongoURI,
			"error", err.Error(),
		))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error(logger.EventDBError, "Error closing store", logger.Fields("error", err.Error()))
		}
	}()
	logger.Info(logger.EventDBConnection, "Store connected", logger.Fields(
		"backend", cfg.StoreBackend,
		"database", cfg.MongoDatabase,
	))

	artists, err := service.NewRecordService[domain.Artist](ctx, store, domain.KindArtist)
	if err != nil {
		logger.Fatal(logger.EventDBError, "Failed to prepare artists collection", logger.Fields("error", err.Error()))
	}
	songs, err := service.NewRecordService[domain.Song](ctx, store, domain.KindSong)
	if err != nil {
		logger.Fatal(logger.EventDBError, "Failed to prepare songs collection", logger.Fields("error", err.Error()))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	go limiter.Run(stopCleanup)
	defer close(stopCleanup)

	router, err := handler.NewRouter(handler.RouterConfig{
		DocsTitle:      cfg.DocsTitle,
		DocsOutputFile: cfg.DocsOutputFile,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimiter:    limiter,
	}, artists, songs, store)
	if err != nil {
		logger.Fatal(logger.EventGeneral, "Failed to build router", logger.Fields("error", err.Error()))
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(logger.EventServiceStartup, "Server starting", logger.Fields("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	select {
	case sig := <-quit:
		logger.Info(logger.EventServiceShutdown, "Shutdown signal received", logger.Fields("signal", sig.String()))
	case err := <-serveErr:
		logger.Error(logger.EventGeneral, "Server failed", logger.Fields("error", err.Error()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(logger.EventServiceShutdown, "Graceful shutdown failed", logger.Fields("error", err.Error()))
	}
	logger.Info(logger.EventServiceShutdown, "Catalog service stopped", nil)
}
