package main

import (
	"alcyxob/coach-dashboard/internal/api"
	"alcyxob/coach-dashboard/internal/app"
	"alcyxob/coach-dashboard/internal/config"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Coach Dashboard Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("FATAL: jwt.secret is not set")
	}

	// --- Gateway, Storage and Services ---
	ctx := context.Background()
	a, err := app.New(ctx, cfg, os.Stderr)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize application: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Error("closing application", "error", err)
		}
	}()
	a.Logger.Info("application initialized", "driver", cfg.Database.Driver, "address", cfg.Server.Address)

	// --- Session Janitor ---
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sweepSessions(janitorCtx, a.Services, sweepInterval(cfg.Editor.SessionTTL))

	// --- Initialize Gin Engine ---
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware
	api.SetupRoutes(router, a.Services)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.Logger.Info("shutting down server")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		a.Logger.Error("server forced to shutdown", "error", err)
		return
	}

	a.Logger.Info("server exiting")
}

// sweepInterval checks for idle sessions a few times per TTL.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return max(ttl/4, 10*time.Second)
}

func sweepSessions(ctx context.Context, s app.Services, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Editor.Sweep()
			s.Nutrition.Sweep()
		}
	}
}
