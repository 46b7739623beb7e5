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

	"github.com/LucienMarcon/APP-BP/internal/config"
	"github.com/LucienMarcon/APP-BP/internal/database"
	"github.com/LucienMarcon/APP-BP/internal/handlers"
	"github.com/LucienMarcon/APP-BP/internal/logger"
	"github.com/LucienMarcon/APP-BP/internal/middleware"
	"github.com/LucienMarcon/APP-BP/internal/repository"
	"github.com/LucienMarcon/APP-BP/internal/services"
	"github.com/LucienMarcon/APP-BP/internal/version"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout = 30 * time.Second
	connectTimeout  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{
		Env:   cfg.Server.Env,
		Level: cfg.Log.Level,
	})
	log.Info("Starting pro forma API", map[string]interface{}{
		"version":     version.Version,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"site_lookup": cfg.Database.Enabled,
	})

	var db *database.Database
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		db, err = database.NewPostgresPool(ctx, cfg.Database)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, log, db)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// setupRouter wires middleware, handlers and routes. db is nil when the
// parcel database is disabled; the parcel route is then not registered.
func setupRouter(cfg *config.Config, log *logger.Logger, db *database.Database) *gin.Engine {
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	var (
		pinger handlers.Pinger
		repo   repository.ParcelRepository
	)
	if db != nil {
		pinger = db
		repo = repository.NewParcelRepository(db)
	}

	healthHandler := handlers.NewHealthHandler(pinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	proformaService := services.NewProformaService(repo, cfg.Limits, log)
	proformaHandler := handlers.NewProformaHandler(proformaService, cfg.Limits.MaxBodyBytes)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/proforma", proformaHandler.Evaluate)
		v1.POST("/proforma/export", proformaHandler.Export)
		if db != nil {
			v1.POST("/parcels/:pin/proforma", proformaHandler.EvaluateParcel)
		}
	}

	return router
}
