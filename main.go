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

	"github.com/gin-gonic/gin"
	"github.com/img2tg/img2tg/internal/config"
	"github.com/img2tg/img2tg/internal/logger"
	"github.com/img2tg/img2tg/internal/metrics"
	"github.com/img2tg/img2tg/internal/server"
	"github.com/img2tg/img2tg/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("img2tg is starting", map[string]interface{}{
		"port":              cfg.Port,
		"log_level":         cfg.LogLevel,
		"has_default_mongo": cfg.HasDefaultMongo(),
		"session_timeout":   cfg.SessionTimeout.String(),
	})

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := session.New(cfg.SessionTimeout)
	collector := metrics.NewCollector()
	handler := server.NewHandler(cfg, sessions, collector)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoMsg("📦 Ready to turn chats into unlimited image storage!")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoMsg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Every cached database connection is closed before exit
	sessions.Close()
}
