package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"filevault/internal/config"
	"filevault/internal/db"
	"filevault/internal/http/handlers"
	"filevault/internal/http/router"
	"filevault/internal/http/views"
	"filevault/internal/logging"
	"filevault/internal/security"
	"filevault/internal/service"
	"filevault/internal/storage"
)

func main() {
	// Load configuration
	cfg, cfgErr := config.Load("config/app.yaml")
	if cfgErr != nil {
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	logger, logCloser := logging.New(cfg.LogFile, cfg.LogLevel)
	defer logCloser.Close()
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// Initialize database
	store, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN, cfg.DBName, logger)
	if err != nil {
		logger.Error("Error connecting to the database", "driver", cfg.DBDriver, "error", err)
		return err
	}
	defer store.Close()
	logger.Info("Database Connected Successfully", "driver", cfg.DBDriver)

	files, err := storage.New(cfg.UploadsDir)
	if err != nil {
		return err
	}
	logger.Info("uploads directory ready", "path", files.Root())

	// Initialize session store
	backend, err := sessionBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	sessionStore := security.NewSessionStore(backend, time.Duration(cfg.Session.TTLMinutes)*time.Minute)

	renderer, err := views.NewRenderer()
	if err != nil {
		return err
	}

	authHandler := handlers.NewAuthHandler(service.NewAuthService(store), sessionStore, renderer, logger)
	fileHandler := handlers.NewFileHandler(files, sessionStore, renderer, logger, cfg.MaxUploadMB<<20)

	// Setup router
	r := router.Setup(authHandler, fileHandler, sessionStore, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-shutdown:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}

func sessionBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sessions.Store, error) {
	secret := []byte(cfg.Secret)
	opts := security.CookieOptions(time.Duration(cfg.Session.TTLMinutes)*time.Minute, cfg.Session.Secure)

	switch cfg.Session.Backend {
	case "", "cookie":
		return security.NewCookieBackend(secret, opts), nil
	case "filesystem":
		if err := os.MkdirAll(cfg.Session.Dir, 0o700); err != nil {
			return nil, err
		}
		return security.NewFilesystemBackend(cfg.Session.Dir, secret, opts), nil
	case "redis":
		client := security.NewRedisClient(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		store := security.NewRedisStore(client, secret, opts)
		if err := store.Ping(ctx); err != nil {
			logger.Error("redis session store unreachable", "addr", cfg.Session.RedisAddr, "error", err)
			return nil, err
		}
		logger.Info("redis session store connected", "addr", cfg.Session.RedisAddr)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
