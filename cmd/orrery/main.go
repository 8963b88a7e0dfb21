package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/api"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/auth"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/config"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/fallback"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/health"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/horizons"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/position"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/refresh"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	st := store.New(cfg.Cache.Path, logger)
	if err := st.Load(); err != nil {
		logger.Error("loading element cache", "path", cfg.Cache.Path, "error", err)
		os.Exit(1)
	}

	table, err := fallback.LoadTable(cfg.Fallback.TablePath, logger)
	if err != nil {
		logger.Error("loading fallback table", "path", cfg.Fallback.TablePath, "error", err)
		os.Exit(1)
	}
	logger.Info("fallback table loaded", "path", cfg.Fallback.TablePath, "entries", table.Len())

	var gateway position.Gateway
	if cfg.Horizons.Enabled {
		gateway = horizons.NewGateway(cfg.Horizons.BaseURL, logger)
	} else {
		logger.Info("ephemeris gateway disabled, serving cached and fallback data only")
	}

	calc := position.NewCalculator(st, refresh.NewEngine(cfg.Intervals()), table, gateway, logger)

	readiness := &health.Readiness{}
	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.Server.Addr, logger, authCfg, calc, table, readiness)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Fallback.Watch {
		go func() {
			if err := table.Watch(ctx); err != nil {
				logger.Warn("fallback table watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"horizons_enabled", cfg.Horizons.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	readiness.SetReady()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
