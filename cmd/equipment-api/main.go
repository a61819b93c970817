// Command equipment-api serves the read API over the equipment store.
//
// Usage:
//
//	equipment-api [-config tracker.yaml] [-init-schema]
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

	"github.com/joho/godotenv"

	"github.com/ddoherty145/OPP-Equipment-Tracker/config"
	"github.com/ddoherty145/OPP-Equipment-Tracker/httpapi"
	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	godotenv.Load()

	var (
		cfgPath    = flag.String("config", "", "path to YAML config (optional, env overrides apply)")
		initSchema = flag.Bool("init-schema", false, "apply the schema DDL on startup (dev convenience)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	ctx := context.Background()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("config", "error", err)
		return 1
	}

	st, err := store.OpenPostgres(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer st.Close()

	if *initSchema {
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Error("init schema", "error", err)
			return 1
		}
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewServer(st, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("equipment api listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return 1
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			return 1
		}
	}

	return 0
}
