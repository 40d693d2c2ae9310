// Package main is the entry point for the oxygen server.
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

	"github.com/CageChen/oxygen/internal/config"
	mfs "github.com/CageChen/oxygen/internal/fs"
	"github.com/CageChen/oxygen/internal/handler"
	"github.com/CageChen/oxygen/internal/logging"
	"github.com/CageChen/oxygen/internal/markdown"
	"github.com/CageChen/oxygen/internal/metrics"
	"github.com/CageChen/oxygen/internal/registry"
	"github.com/CageChen/oxygen/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logging: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logging.Sync() }()

	log := logging.L()
	log.Info("oxygen starting",
		zap.String("config_file", cfg.GetConfigFilePath()),
		zap.String("root", cfg.Root),
		zap.String("git_ref", cfg.GitRef),
		zap.String("extension", cfg.Extension),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Index the root before accepting any request
	var fsys mfs.FileSystem
	if cfg.GitRef != "" {
		fsys = mfs.NewGitFS(cfg.Root, cfg.GitRef)
	} else {
		fsys = mfs.NewLocalFS(cfg.Root)
	}
	store, err := storage.BuildContext(ctx, fsys, storage.NewClassifier(cfg.Extension))
	if err != nil {
		logging.Fatal("Failed to index root", zap.String("root", cfg.Root), zap.Error(err))
	}
	stats := store.Stats()
	metrics.SetIndex(stats.Directories, stats.Files, stats.BuildDuration)
	log.Info("index built",
		zap.Int("directories", stats.Directories),
		zap.Int("files", stats.Files),
		zap.Duration("took", stats.BuildDuration),
	)

	svc := handler.NewService(store, registry.New(), markdown.NewRenderer(markdown.DefaultStyle))

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware())
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.Use(corsMiddleware())

	r.GET("/healthz", handler.Health)
	handler.Routes(r.Group("/api"), svc, cfg.Server.MaxInflight)
	r.NoRoute(handler.NoRoute)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logging.Fatal("Server failed", zap.Error(err))
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Client-Id")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
