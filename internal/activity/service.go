package activity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/manifest"
)

// Common errors
var (
	ErrCharacterRequired = errors.New("character_id is required")
	ErrCharacterNotFound = errors.New("character not found")
	ErrInvalidMode       = errors.New("invalid activity mode")
	ErrRefreshFailed     = errors.New("failed to load activity history from bungie")
)

// Count limits for stats queries, in activity instances
const (
	DefaultCount = 5
	MaxCount     = 25
)

// Refresher pulls recent activity history for a character from Bungie into
// the database. Mode 0 loads every mode.
type Refresher interface {
	RefreshStats(ctx context.Context, bungieCharacterID int64, mode, count int) error
}

// StatsQuery holds the filters of a stats request. Mode takes precedence
// over ActivityName when both are set.
type StatsQuery struct {
	CharacterID  int64
	Mode         *int
	ActivityName string
	Count        int
	Refresh      bool
}

// Service handles activity business logic
type Service struct {
	repo      *Repository
	defs      manifest.Definitions
	refresher Refresher
	now       func() time.Time
}

// NewService creates a new activity service with dependencies injected.
// refresher may be nil, in which case queries only read stored stats.
func NewService(repo *Repository, defs manifest.Definitions, refresher Refresher) *Service {
	return &Service{
		repo:      repo,
		defs:      defs,
		refresher: refresher,
		now:       time.Now,
	}
}

// SetRefresher wires the loader after construction; the loader itself
// depends on this service to store activities.
func (s *Service) SetRefresher(r Refresher) {
	s.refresher = r
}

// ResolveActivity stores the activity definition for hash and returns the row
func (s *Service) ResolveActivity(ctx context.Context, hash uint32) (*Activity, error) {
	def, err := s.defs.Activity(ctx, hash)
	if err != nil {
		if !errors.Is(err, manifest.ErrDefinitionNotFound) {
			return nil, err
		}
		if a, err := s.repo.GetActivityByBungieID(ctx, int64(hash)); err != nil || a != nil {
			return a, err
		}
		return s.repo.UpsertActivity(ctx, &Activity{BungieID: int64(hash), Name: fmt.Sprintf("Unknown Activity %d", hash)})
	}

	a := &Activity{
		BungieID:        int64(hash),
		Name:            def.DisplayProperties.Name,
		MaxFireteamSize: def.Matchmaking.MaxPlayers,
	}
	if t, err := s.defs.ActivityType(ctx, def.ActivityTypeHash); err == nil {
		a.Type = t.DisplayProperties.Name
	}

	names := make([]string, 0, len(def.Modifiers))
	for _, m := range def.Modifiers {
		mod, err := s.defs.ActivityModifier(ctx, m.ActivityModifierHash)
		if err != nil {
			continue
		}
		names = append(names, mod.DisplayProperties.Name)
	}
	a.Modifiers = JoinModifiers(names)

	return s.repo.UpsertActivity(ctx, a)
}

// RecordStat stores one weapon stat row
func (s *Service) RecordStat(ctx context.Context, stat *Stat) (*Stat, error) {
	stat.PrecisionKillsPercent = PrecisionPercent(stat.Kills, stat.PrecisionKills)
	return s.repo.UpsertStat(ctx, stat)
}

// Query answers a stats request from stored stats, loading from Bungie first
// when asked to or when nothing is stored yet.
func (s *Service) Query(ctx context.Context, q StatsQuery) (*StatsResponse, error) {
	if q.CharacterID == 0 {
		return nil, ErrCharacterRequired
	}
	if q.Count < 1 {
		q.Count = DefaultCount
	}
	if q.Count > MaxCount {
		q.Count = MaxCount
	}
	if q.Mode != nil {
		q.ActivityName = ""
	}

	characterID, found, err := s.repo.FindCharacter(ctx, q.CharacterID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCharacterNotFound
	}

	stats, err := s.load(ctx, characterID, q)
	if err != nil {
		return nil, err
	}

	refreshed := false
	if s.refresher != nil && (q.Refresh || len(stats) == 0) {
		mode := 0
		if q.Mode != nil {
			mode = *q.Mode
		}
		if err := s.refresher.RefreshStats(ctx, q.CharacterID, mode, q.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		refreshed = true
		if stats, err = s.load(ctx, characterID, q); err != nil {
			return nil, err
		}
	}

	resp := &StatsResponse{
		FiltersUsed: FiltersUsed{
			CharacterID:  strconv.FormatInt(q.CharacterID, 10),
			Mode:         q.Mode,
			ActivityName: q.ActivityName,
			Count:        q.Count,
			Refreshed:    refreshed,
		},
		Timestamp: s.now().UTC(),
		Stats:     make([]*StatResponse, 0, len(stats)),
		Weapons:   weaponTotals(stats),
	}
	if q.Mode != nil {
		resp.FiltersUsed.ModeLabel = destiny.ModeLabel(*q.Mode)
	}
	for _, st := range stats {
		resp.Stats = append(resp.Stats, toStatResponse(st))
	}

	instances := countInstances(stats)
	if len(stats) == 0 {
		resp.Message = "No stats found for the selected filters."
	} else {
		resp.Message = fmt.Sprintf("Loaded %d weapon stats from %d activities.", len(stats), instances)
	}
	return resp, nil
}

// load reads stored stats, applies the activity name filter and keeps the
// newest q.Count instances
func (s *Service) load(ctx context.Context, characterID int64, q StatsQuery) ([]*Stat, error) {
	stats, err := s.repo.ListStats(ctx, characterID, q.Mode)
	if err != nil {
		return nil, err
	}

	if q.ActivityName != "" {
		filtered := stats[:0]
		for _, st := range stats {
			if fuzzy.MatchFold(q.ActivityName, st.ActivityName) {
				filtered = append(filtered, st)
			}
		}
		stats = filtered
	}

	return limitInstances(stats, q.Count), nil
}

// limitInstances keeps the rows of the first n distinct instances; stats
// are already ordered newest first
func limitInstances(stats []*Stat, n int) []*Stat {
	seen := make(map[int64]bool)
	for i, st := range stats {
		if !seen[st.InstanceID] {
			if len(seen) == n {
				return stats[:i]
			}
			seen[st.InstanceID] = true
		}
	}
	return stats
}

func countInstances(stats []*Stat) int {
	seen := make(map[int64]bool)
	for _, st := range stats {
		seen[st.InstanceID] = true
	}
	return len(seen)
}

func weaponTotals(stats []*Stat) []*WeaponTotal {
	byName := make(map[string]*WeaponTotal)
	var order []*WeaponTotal
	for _, st := range stats {
		t, ok := byName[st.WeaponName]
		if !ok {
			t = &WeaponTotal{WeaponName: st.WeaponName}
			byName[st.WeaponName] = t
			order = append(order, t)
		}
		t.Activities++
		t.Kills += st.Kills
		t.PrecisionKills += st.PrecisionKills
	}
	for _, t := range order {
		t.PrecisionKillsPercent = PrecisionPercent(t.Kills, t.PrecisionKills)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Kills != order[j].Kills {
			return order[i].Kills > order[j].Kills
		}
		return order[i].WeaponName < order[j].WeaponName
	})
	if order == nil {
		order = []*WeaponTotal{}
	}
	return order
}

func toStatResponse(st *Stat) *StatResponse {
	return &StatResponse{
		StatID:                st.ID,
		InstanceID:            strconv.FormatInt(st.InstanceID, 10),
		Mode:                  st.Mode,
		ModeLabel:             destiny.ModeLabel(st.Mode),
		Period:                st.Period,
		ActivityName:          st.ActivityName,
		WeaponName:            st.WeaponName,
		CharacterClass:        st.CharacterClass,
		Kills:                 st.Kills,
		PrecisionKills:        st.PrecisionKills,
		PrecisionKillsPercent: st.PrecisionKillsPercent,
	}
}
