package main

import (
	"context"
	"fmt"

	"github.com/d2sandbox/tracker/internal/activity"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/database"
	"github.com/d2sandbox/tracker/internal/gear"
	"github.com/d2sandbox/tracker/internal/gear/mainstat"
	"github.com/d2sandbox/tracker/internal/ingest"
	"github.com/d2sandbox/tracker/internal/manifest"
	"github.com/d2sandbox/tracker/internal/player"
)

// app holds what the load commands share: the database and a loader wired
// to the Bungie API and the local manifest
type app struct {
	db       *database.DB
	manifest *manifest.Reader
	loader   *ingest.Loader
}

func newApp(ctx context.Context, participants bool) (*app, error) {
	client, err := newBungieClient()
	if err != nil {
		return nil, err
	}

	path := manifest.NewSyncer(nil, nil, cfg.Manifest.Dir, logger).ContentPath()
	defs, err := manifest.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run `d2load manifest sync` first)", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		defs.Close()
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		defs.Close()
		db.Close()
		return nil, err
	}

	gearService := gear.NewService(gear.NewRepository(db.DB), defs, mainstat.NewFactory())
	activityService := activity.NewService(activity.NewRepository(db.DB), defs, nil)
	loader := ingest.NewLoader(
		client,
		player.NewRepository(db.DB),
		character.NewRepository(db.DB),
		gearService,
		activityService,
		logger,
		ingest.Options{
			Concurrency:  cfg.Ingest.Concurrency,
			Participants: participants || cfg.Ingest.Participants,
		},
	)

	return &app{db: db, manifest: defs, loader: loader}, nil
}

func (a *app) Close() {
	a.manifest.Close()
	a.db.Close()
}
