package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/castorcoop/scenariosync/internal/config"
	"github.com/castorcoop/scenariosync/internal/domain/lock"
	"github.com/castorcoop/scenariosync/internal/domain/migration"
	"github.com/castorcoop/scenariosync/internal/domain/presence"
	"github.com/castorcoop/scenariosync/internal/domain/syncdoc"
	"github.com/castorcoop/scenariosync/internal/localcache"
	"github.com/castorcoop/scenariosync/internal/sqlite"
	"github.com/castorcoop/scenariosync/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if cfg.Log.Path != "" {
		logWriter = &lumberjack.Logger{
			Filename:   cfg.Log.Path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	scenarioRepo := sqlite.NewScenarioRepository(db)
	participantRepo := sqlite.NewParticipantRepository(db)
	lockStore := sqlite.NewLockStore(db)
	presenceRepo := sqlite.NewPresenceRepository(db)
	migrationStore := sqlite.NewMigrationStore(db)

	cache := localcache.New(cfg.Cache.Dir)

	lockSvc := lock.NewService(lockStore, logger,
		lock.WithLease(cfg.Lock.Lease),
		lock.WithHeartbeatInterval(cfg.Lock.HeartbeatInterval),
		lock.WithAdminSecret(cfg.Lock.AdminSecret),
	)

	presenceTracker := presence.NewTracker(presenceRepo, logger,
		presence.WithHeartbeatInterval(cfg.Presence.HeartbeatInterval),
		presence.WithStaleThreshold(cfg.Presence.StaleThreshold),
	)

	syncManager := syncdoc.NewManager(scenarioRepo, participantRepo, cache, logger)
	migrationSvc := migration.NewService(scenarioRepo, participantRepo, migrationStore, logger)

	hub := transport.NewHub(logger)
	router := transport.NewRouter(transport.Services{
		Locks:     lockSvc,
		Sync:      syncManager,
		Migration: migrationSvc,
		Presence:  presenceTracker,
	}, hub, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
