// Package ingest loads players, characters, loadouts and activity stats from
// the Bungie API into the tracker database.
package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/activity"
	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/gear"
	"github.com/d2sandbox/tracker/internal/player"
)

// API is the subset of the Bungie client the loader uses
type API interface {
	SearchByBungieName(ctx context.Context, name bungie.BungieName, membershipType int) ([]bungie.UserInfoCard, error)
	GetMembershipsByID(ctx context.Context, membershipID int64, membershipType int) (*bungie.UserMemberships, error)
	GetProfile(ctx context.Context, membershipType int, membershipID int64) (*bungie.ProfileResponse, error)
	GetCharacter(ctx context.Context, membershipType int, membershipID, characterID int64) (*bungie.CharacterResponse, error)
	GetActivityHistory(ctx context.Context, membershipType int, membershipID, characterID int64, mode, count, page int) (*bungie.ActivityHistory, error)
	GetPostGameCarnageReport(ctx context.Context, instanceID int64) (*bungie.PostGameCarnageReport, error)
}

// Options tune a Loader
type Options struct {
	// Concurrency bounds the number of post game carnage reports fetched at once
	Concurrency int
	// Participants also registers and records every other player in a loaded activity
	Participants bool
}

// Loader writes Bungie data into the repositories
type Loader struct {
	api        API
	players    *player.Repository
	characters *character.Repository
	gear       *gear.Service
	activities *activity.Service
	logger     logrus.FieldLogger
	opts       Options
}

// NewLoader creates a loader with its dependencies injected
func NewLoader(
	api API,
	players *player.Repository,
	characters *character.Repository,
	gearService *gear.Service,
	activities *activity.Service,
	logger logrus.FieldLogger,
	opts Options,
) *Loader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Loader{
		api:        api,
		players:    players,
		characters: characters,
		gear:       gearService,
		activities: activities,
		logger:     logger,
		opts:       opts,
	}
}

// Summary counts what one ingestion run wrote
type Summary struct {
	RunID      string `json:"run_id"`
	Players    int    `json:"players"`
	Characters int    `json:"characters"`
	Instances  int    `json:"instances"`
	Stats      int    `json:"stats"`
	Skipped    int    `json:"skipped"`
}

// Add folds other into s
func (s *Summary) Add(other *Summary) {
	s.Players += other.Players
	s.Characters += other.Characters
	s.Instances += other.Instances
	s.Stats += other.Stats
	s.Skipped += other.Skipped
}

// run carries the per-run logger and counters
type run struct {
	mu      sync.Mutex
	summary Summary
	logger  logrus.FieldLogger
}

func (l *Loader) newRun(fields logrus.Fields) *run {
	id := uuid.NewString()
	entry := l.logger.WithField("run_id", id)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	return &run{summary: Summary{RunID: id}, logger: entry}
}

func (r *run) count(fn func(s *Summary)) {
	r.mu.Lock()
	fn(&r.summary)
	r.mu.Unlock()
}

func (r *run) result() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	return &s
}
