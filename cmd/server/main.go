// Точка входа сервера: конфиг, логгер, инфраструктура, realtime, HTTP, graceful shutdown.
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

	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/app"
	"github.com/parceltrack/backend/internal/config"
	"github.com/parceltrack/backend/internal/infra"
	"github.com/parceltrack/backend/internal/logger"
)

func main() {
	envFile := config.LoadDotEnvUp(8)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.AppEnv, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envFile != "" {
		log.Info("env file loaded", zap.String("path", envFile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inf, err := infra.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("infra init failed", zap.Error(err))
	}
	defer inf.Close()

	a := app.New(cfg, inf, log)
	if err := a.Start(ctx); err != nil {
		log.Fatal("app start failed", zap.Error(err))
	}
	defer a.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("http server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
