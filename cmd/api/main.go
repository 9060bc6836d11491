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
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/d2sandbox/tracker/docs"
	"github.com/d2sandbox/tracker/internal/activity"
	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/config"
	"github.com/d2sandbox/tracker/internal/database"
	"github.com/d2sandbox/tracker/internal/gear"
	"github.com/d2sandbox/tracker/internal/gear/mainstat"
	"github.com/d2sandbox/tracker/internal/ingest"
	"github.com/d2sandbox/tracker/internal/logging"
	"github.com/d2sandbox/tracker/internal/manifest"
	"github.com/d2sandbox/tracker/internal/player"
	mw "github.com/d2sandbox/tracker/pkg/middleware"
)

// @title                       Destiny 2 Sandbox Tracker API
// @version                     1.0
// @description                 Tracks Destiny 2 players, their loadouts and per-weapon activity stats.
// @host                        localhost:8080
// @BasePath                    /d2
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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

	db, err := database.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.WithField("driver", db.Dialect).Info("Connected to database successfully")

	// Bungie client; without an API key the tracker serves stored data only
	var client *bungie.Client
	if cfg.Bungie.APIKey != "" {
		client, err = bungie.NewClient(cfg.Bungie.APIKey,
			bungie.WithBaseURL(cfg.Bungie.BaseURL),
			bungie.WithTimeout(cfg.Bungie.Timeout),
			bungie.WithLogger(logger),
		)
		if err != nil {
			logger.Fatalf("Failed to create bungie client: %v", err)
		}
	} else {
		logger.Warn("no bungie api key configured, registration and refresh are disabled")
	}

	defs := openDefinitions(cfg.Manifest.Dir, logger)

	// Gear feature (with main stat factory injected)
	gearRepo := gear.NewRepository(db.DB)
	gearService := gear.NewService(gearRepo, defs, mainstat.NewFactory())
	gearHandler := gear.NewHandler(gearService)

	// Activity feature
	activityRepo := activity.NewRepository(db.DB)
	activityService := activity.NewService(activityRepo, defs, nil)
	activityHandler := activity.NewHandler(activityService)

	// Character feature
	characterRepo := character.NewRepository(db.DB)
	characterService := character.NewService(characterRepo, gearService)
	characterHandler := character.NewHandler(characterService)

	playerRepo := player.NewRepository(db.DB)

	// Ingestion is what registers players and refreshes stats
	var registrar player.Registrar
	var loader *ingest.Loader
	if client != nil {
		loader = ingest.NewLoader(client, playerRepo, characterRepo, gearService, activityService, logger, ingest.Options{
			Concurrency:  cfg.Ingest.Concurrency,
			Participants: cfg.Ingest.Participants,
		})
		activityService.SetRefresher(loader)
		registrar = loader
	}

	// Player feature
	playerService := player.NewService(playerRepo, registrar)
	playerHandler := player.NewHandler(playerService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.Server.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/d2", func(r chi.Router) {
		r.Mount("/user", playerHandler.Routes())
		r.Get("/player/{destiny_id}", playerHandler.GetByDestinyID)
		characterHandler.Register(r)
		gearHandler.Register(r)
		activityHandler.Register(r)

		if loader != nil {
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireToken(cfg.Admin.Token))
				ingest.NewHandler(loader).Register(r)
			})
		}
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
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

// openDefinitions opens the synced manifest. Until one has been synced the
// API runs on an empty definition set and stores placeholders.
func openDefinitions(dir string, logger logrus.FieldLogger) manifest.Definitions {
	path := manifest.NewSyncer(nil, nil, dir, logger).ContentPath()
	reader, err := manifest.OpenReader(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("manifest not available, run `d2load manifest sync`")
		return &manifest.Static{}
	}
	return reader
}

// corsHandler lets the dashboard call the API from a browser
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
