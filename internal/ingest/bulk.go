package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/player"
)

// Member is a Destiny membership to load
type Member struct {
	DestinyID int64            `json:"destiny_id"`
	Platform  destiny.Platform `json:"platform"`
}

// BulkRequest describes a bulk load: players given by Bungie Name or
// membership id, then the recent activities of their characters.
type BulkRequest struct {
	Names    []string         `json:"names"`
	Platform destiny.Platform `json:"platform"`
	Members  []Member         `json:"members"`
	// Modes to load history for; empty loads every filterable mode
	Modes []int `json:"modes"`
	// Count of activities per mode and character
	Count int `json:"count"`
	// FirstCharacterOnly restricts history loading to the most recently
	// played character of each player
	FirstCharacterOnly bool `json:"first_character_only"`
}

// LoadBulk registers every requested player and loads their activity
// history. A failing player is logged and counted as skipped.
func (l *Loader) LoadBulk(ctx context.Context, req BulkRequest) (*Summary, error) {
	total := &Summary{}
	r := l.newRun(logrus.Fields{"bulk": true})
	total.RunID = r.summary.RunID

	modes := req.Modes
	if len(modes) == 0 {
		for _, m := range destiny.ActivityModes() {
			modes = append(modes, m.Value)
		}
	}
	if req.Count < 1 {
		req.Count = 5
	}

	var loaded []*player.Player
	for _, raw := range req.Names {
		name, err := bungie.ParseBungieName(raw)
		if err != nil {
			r.logger.WithError(err).Warn("skipping player")
			total.Skipped++
			continue
		}
		p, s, err := l.registerPlayer(ctx, name, req.Platform)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.WithError(err).WithField("bng_username", raw).Warn("skipping player")
			total.Skipped++
			continue
		}
		total.Add(s)
		loaded = append(loaded, p)
	}

	for _, m := range req.Members {
		p, s, err := l.RegisterMember(ctx, m.DestinyID, m.Platform)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.WithError(err).WithField("destiny_id", m.DestinyID).Warn("skipping member")
			total.Skipped++
			continue
		}
		total.Add(s)
		loaded = append(loaded, p)
	}

	for _, p := range loaded {
		characters, err := l.characters.ListByPlayer(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list characters of %s: %w", p.BungieUsername, err)
		}
		if req.FirstCharacterOnly && len(characters) > 1 {
			characters = characters[:1]
		}
		for _, c := range characters {
			for _, mode := range modes {
				s, err := l.LoadActivityStats(ctx, c.BungieCharacterID, mode, req.Count)
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					r.logger.WithError(err).WithFields(logrus.Fields{
						"character_id": c.BungieCharacterID,
						"mode":         mode,
					}).Warn("skipping activity history")
					total.Skipped++
					continue
				}
				total.Add(s)
			}
		}
	}

	r.logger.WithFields(logrus.Fields{
		"players":   total.Players,
		"instances": total.Instances,
		"stats":     total.Stats,
		"skipped":   total.Skipped,
	}).Info("bulk load finished")
	return total, nil
}
