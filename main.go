package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"lyric-cache/internal/cache"
	"lyric-cache/internal/common/logging"
	"lyric-cache/internal/config"
	"lyric-cache/internal/server"
	"lyric-cache/internal/store"
	_ "lyric-cache/internal/store/postgres"
	_ "lyric-cache/internal/store/redis"
	_ "lyric-cache/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize persistent store: %v", err)
	}

	logging.Info("persistent store ready", logging.String("backend", cfg.StoreType))

	c := cache.New(st, cache.Config{
		MaxMemoryEntries:  cfg.MaxMemoryEntries,
		DefaultTTLSeconds: cfg.DefaultTTLSeconds,
		CompactionWindow:  cfg.CompactionWindow(),
	}, logging.GetGlobalLogger())
	defer c.Close()

	// Background maintenance decoupled from the write path.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.MaintenanceSchedule, func() {
		removed := c.Maintain(context.Background())
		if removed > 0 {
			logging.Info("maintenance sweep removed expired entries", logging.Int("removed", removed))
		}
	}); err != nil {
		log.Fatalf("Invalid maintenance schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	handlers := server.New(c, st)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Info("server starting", logging.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logging.Info("server exited")
}
