package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/config"
	"github.com/d2sandbox/tracker/internal/dashboard"
	"github.com/d2sandbox/tracker/internal/logging"
	"github.com/d2sandbox/tracker/pkg/d2api"
	mw "github.com/d2sandbox/tracker/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		logrus.Fatalf("setup logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := d2api.New(cfg.Dashboard.APIURL, d2api.WithLogger(logger))
	handler, err := dashboard.NewHandler(api, logger)
	if err != nil {
		logger.Fatalf("load templates: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:              cfg.Dashboard.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("api", cfg.Dashboard.APIURL).Infof("Dashboard starting on %s", cfg.Dashboard.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Dashboard failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
}
