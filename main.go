package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"watchdeck/api"
	"watchdeck/config"
	"watchdeck/handlers"
	"watchdeck/internal/database"
	"watchdeck/services/metadata"
	"watchdeck/services/watchlist"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("WATCHDECK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.Directory != "" {
		if err := os.MkdirAll(settings.Log.Directory, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", settings.Log.Directory, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   filepath.Join(settings.Log.Directory, "watchdeck.log"),
				MaxSize:    settings.Log.MaxSizeMB,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAgeDays,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.TMDB.APIKey == "" {
		log.Println("[main] warning: no TMDB API key configured, catalog endpoints will fail until one is set")
	}

	// Storage
	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Services
	metadataSvc := metadata.NewService(
		settings.TMDB.APIKey,
		settings.TMDB.Language,
		settings.Cache.Directory,
		time.Duration(settings.Cache.DetailTTLMinutes)*time.Minute,
		time.Duration(settings.Cache.ListTTLMinutes)*time.Minute,
	)
	watchlistSvc := watchlist.NewService(metadataSvc, db.Catalog, db.Users)

	// HTTP surface
	r := mux.NewRouter()
	api.Register(r,
		handlers.NewCatalogHandler(metadataSvc),
		handlers.NewWatchlistHandler(watchlistSvc),
		handlers.NewUserHandler(watchlistSvc),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	log.Printf("[main] server starting on %s", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("[main] shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("[main] shutdown complete")
}
