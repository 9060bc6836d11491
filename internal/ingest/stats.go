package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/d2sandbox/tracker/internal/activity"
	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/player"
)

// ErrCharacterNotTracked is returned when stats are requested for a
// character that was never registered
var ErrCharacterNotTracked = errors.New("character is not tracked")

// Weapon stat names in post game carnage reports
const (
	statWeaponKills          = "uniqueWeaponKills"
	statWeaponPrecisionKills = "uniqueWeaponPrecisionKills"
)

// LoadActivityStats loads the most recent count activities of mode (0 for
// every mode) played by a tracked character and records per-weapon stats.
// Reports that cannot be fetched or stored are logged and skipped.
func (l *Loader) LoadActivityStats(ctx context.Context, bungieCharacterID int64, mode, count int) (*Summary, error) {
	r := l.newRun(logrus.Fields{"character_id": bungieCharacterID, "mode": mode})

	c, err := l.characters.GetByBungieID(ctx, bungieCharacterID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%d: %w", bungieCharacterID, ErrCharacterNotTracked)
	}
	p, err := l.players.GetByID(ctx, c.PlayerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("player %d of character %d: %w", c.PlayerID, bungieCharacterID, ErrCharacterNotTracked)
	}

	membershipType, err := platformType(p.Platform)
	if err != nil {
		return nil, err
	}

	history, err := l.api.GetActivityHistory(ctx, membershipType, p.DestinyID, bungieCharacterID, mode, count, 0)
	if err != nil {
		return nil, fmt.Errorf("get activity history: %w", err)
	}

	reports := l.fetchReports(ctx, r, history.Activities)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, report := range reports {
		if report == nil {
			continue
		}
		if err := l.storeReport(ctx, r, report, c, mode); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.WithError(err).WithField("instance_id", report.ActivityDetails.InstanceID).Warn("skipping activity instance")
			r.count(func(s *Summary) { s.Skipped++ })
			continue
		}
		r.count(func(s *Summary) { s.Instances++ })
	}

	summary := r.result()
	r.logger.WithFields(logrus.Fields{
		"instances": summary.Instances,
		"stats":     summary.Stats,
		"skipped":   summary.Skipped,
	}).Info("activity stats loaded")
	return summary, nil
}

// RefreshStats satisfies activity.Refresher
func (l *Loader) RefreshStats(ctx context.Context, bungieCharacterID int64, mode, count int) error {
	_, err := l.LoadActivityStats(ctx, bungieCharacterID, mode, count)
	return err
}

// fetchReports downloads the carnage reports of activities with bounded
// concurrency. The result is in history order; failed fetches are nil.
func (l *Loader) fetchReports(ctx context.Context, r *run, activities []bungie.HistoricalActivity) []*bungie.PostGameCarnageReport {
	reports := make([]*bungie.PostGameCarnageReport, len(activities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, a := range activities {
		instanceID := a.ActivityDetails.InstanceID
		g.Go(func() error {
			report, err := l.fetchReport(gctx, instanceID)
			if err != nil {
				r.logger.WithError(err).WithField("instance_id", instanceID).Warn("failed to fetch carnage report")
				r.count(func(s *Summary) { s.Skipped++ })
				return nil
			}
			if report.ActivityDetails.InstanceID == 0 {
				report.ActivityDetails.InstanceID = instanceID
			}
			if report.Period == "" {
				report.Period = a.Period
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// fetchReport retries once after the backoff Bungie asks for when the key
// is throttled
func (l *Loader) fetchReport(ctx context.Context, instanceID int64) (*bungie.PostGameCarnageReport, error) {
	report, err := l.api.GetPostGameCarnageReport(ctx, instanceID)
	var apiErr *bungie.APIError
	if err == nil || !errors.As(err, &apiErr) || !apiErr.Throttled() {
		return report, err
	}

	wait := time.NewTimer(time.Duration(apiErr.ThrottleSeconds) * time.Second)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wait.C:
	}
	return l.api.GetPostGameCarnageReport(ctx, instanceID)
}

// storeReport records the stats of one activity instance
func (l *Loader) storeReport(ctx context.Context, r *run, report *bungie.PostGameCarnageReport, tracked *character.Character, mode int) error {
	details := report.ActivityDetails
	hash := details.DirectorActivityHash
	if hash == 0 {
		hash = details.ReferenceID
	}
	act, err := l.activities.ResolveActivity(ctx, hash)
	if err != nil {
		return err
	}

	// stats are filed under the requested mode so they are found again by it
	statMode := mode
	if statMode == 0 {
		statMode = details.Mode
	}

	for _, entry := range report.Entries {
		c := tracked
		if entry.CharacterID != tracked.BungieCharacterID {
			if !l.opts.Participants {
				continue
			}
			c, err = l.participant(ctx, r, entry)
			if err != nil {
				r.logger.WithError(err).WithField("participant", entry.CharacterID).Warn("skipping participant")
				continue
			}
		}

		for _, w := range entry.Extended.Weapons {
			weapon, err := l.gear.ResolveWeapon(ctx, w.ReferenceID)
			if err != nil {
				return err
			}
			_, err = l.activities.RecordStat(ctx, &activity.Stat{
				InstanceID:     details.InstanceID,
				ActivityID:     act.ID,
				CharacterID:    c.ID,
				WeaponID:       weapon.ID,
				Mode:           statMode,
				Period:         report.Period,
				Kills:          int(w.Value(statWeaponKills)),
				PrecisionKills: int(w.Value(statWeaponPrecisionKills)),
				WeaponName:     weapon.Name,
				ActivityName:   act.Name,
				CharacterClass: c.Class,
				ReportMode:     mode == 0,
			})
			if err != nil {
				return err
			}
			r.count(func(s *Summary) { s.Stats++ })
		}
	}
	return nil
}

// participant returns the stored character of a carnage report entry,
// registering its player first when needed
func (l *Loader) participant(ctx context.Context, r *run, entry bungie.PGCREntry) (*character.Character, error) {
	c, err := l.characters.GetByBungieID(ctx, entry.CharacterID)
	if err != nil || c != nil {
		return c, err
	}

	card := entry.Player.DestinyUserInfo
	if _, err := l.storeMember(ctx, r, card); err != nil {
		return nil, err
	}

	c, err = l.characters.GetByBungieID(ctx, entry.CharacterID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		// deleted characters still show up in old reports
		return nil, fmt.Errorf("%d: %w", entry.CharacterID, ErrCharacterNotTracked)
	}
	return c, nil
}

func platformType(name string) (int, error) {
	p, err := destiny.ParsePlatform(name)
	if err != nil {
		return 0, err
	}
	return int(p), nil
}

var _ activity.Refresher = (*Loader)(nil)
var _ player.Registrar = (*Loader)(nil)
