package main

import (
	"context"
	"errors"
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

	"gopkg.in/natefinch/lumberjack.v2"

	"cinetrack/api"
	"cinetrack/config"
	"cinetrack/handlers"
	"cinetrack/internal/database"
	"cinetrack/services/accounts"
	"cinetrack/services/auth"
	"cinetrack/services/catalog"
	"cinetrack/services/diary"
	"cinetrack/services/playlists"
	"cinetrack/services/recommend"
	"cinetrack/services/tmdb"
	"cinetrack/utils"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🎬 Cinetrack Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("CINETRACK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Generate a token signing secret on first run and persist it
	if settings.Auth.JWTSecret == "" {
		secret, err := utils.GenerateSecret()
		if err != nil {
			log.Fatalf("failed to generate JWT secret: %v", err)
		}
		settings.Auth.JWTSecret = secret
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist generated JWT secret: %v", err)
		}
		fmt.Println("🔑 Generated a new token signing secret.")
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	log.Printf("Database ready at %s", settings.Database.Path)

	// Services
	accountsSvc := accounts.NewService(db)
	catalogSvc := catalog.NewService(db)
	diarySvc := diary.NewService(db, catalogSvc)
	playlistsSvc := playlists.NewService(db, catalogSvc)
	tmdbClient := tmdb.NewClient(settings.TMDB.APIKey, settings.TMDB.Language, nil)
	recommendSvc := recommend.NewService(settings.Recommender.URL, catalogSvc, nil)
	tokenSvc := auth.NewTokenService(settings.Auth.JWTSecret, time.Duration(settings.Auth.TokenTTLHours)*time.Hour)
	googleVerifier := auth.NewGoogleVerifier(settings.Auth.GoogleClientID, nil)

	if !tmdbClient.IsConfigured() {
		log.Printf("Warning: TMDB API key not configured; search and catalog sync will be unavailable")
	}

	// Handlers + routes
	r := utils.NewRouter()
	api.Register(
		r,
		tokenSvc,
		handlers.NewAuthHandler(accountsSvc, tokenSvc, googleVerifier),
		handlers.NewMoviesHandler(catalogSvc, tmdbClient),
		handlers.NewWatchlistHandler(diarySvc),
		handlers.NewPlaylistsHandler(playlistsSvc),
		handlers.NewRecommendationsHandler(recommendSvc),
		settings.Server.ClientOrigin,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}

	log.Println("Cinetrack stopped")
}
