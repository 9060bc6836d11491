package activity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles activity and activity stat persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new activity repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertActivity inserts an activity definition or refreshes the existing row
func (r *Repository) UpsertActivity(ctx context.Context, a *Activity) (*Activity, error) {
	query := `
		INSERT INTO activities (bng_activity_id, activity_name, type, max_fireteam_size, modifiers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bng_activity_id) DO UPDATE SET
			activity_name = excluded.activity_name,
			type = excluded.type,
			max_fireteam_size = excluded.max_fireteam_size,
			modifiers = excluded.modifiers
		RETURNING activity_id, bng_activity_id, activity_name, type, max_fireteam_size, modifiers
	`

	saved := &Activity{}
	err := r.db.QueryRowContext(ctx, query, a.BungieID, a.Name, a.Type, a.MaxFireteamSize, a.Modifiers).Scan(
		&saved.ID, &saved.BungieID, &saved.Name, &saved.Type, &saved.MaxFireteamSize, &saved.Modifiers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert activity: %w", err)
	}
	return saved, nil
}

// GetActivityByBungieID retrieves an activity by its definition hash
func (r *Repository) GetActivityByBungieID(ctx context.Context, bungieID int64) (*Activity, error) {
	query := `
		SELECT activity_id, bng_activity_id, activity_name, type, max_fireteam_size, modifiers
		FROM activities
		WHERE bng_activity_id = $1
	`

	a := &Activity{}
	err := r.db.QueryRowContext(ctx, query, bungieID).Scan(
		&a.ID, &a.BungieID, &a.Name, &a.Type, &a.MaxFireteamSize, &a.Modifiers,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// UpsertStat records a weapon stat for an instance, replacing a previous
// record of the same (instance, character, weapon). With ReportMode set the
// previous record keeps its mode.
func (r *Repository) UpsertStat(ctx context.Context, s *Stat) (*Stat, error) {
	query := `
		INSERT INTO activity_stats (
			instance_id, activity_id, character_id, weapon_id, mode, period,
			kills, precision_kills, precision_kills_percent, weapon_name, activity_name, character_class
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (instance_id, character_id, weapon_id) DO UPDATE SET
			activity_id = excluded.activity_id,
			mode = CASE WHEN $13 THEN activity_stats.mode ELSE excluded.mode END,
			period = excluded.period,
			kills = excluded.kills,
			precision_kills = excluded.precision_kills,
			precision_kills_percent = excluded.precision_kills_percent,
			weapon_name = excluded.weapon_name,
			activity_name = excluded.activity_name,
			character_class = excluded.character_class
		RETURNING stat_id, mode
	`

	saved := *s
	err := r.db.QueryRowContext(ctx, query,
		s.InstanceID, s.ActivityID, s.CharacterID, s.WeaponID, s.Mode, s.Period,
		s.Kills, s.PrecisionKills, s.PrecisionKillsPercent, s.WeaponName, s.ActivityName, s.CharacterClass,
		s.ReportMode,
	).Scan(&saved.ID, &saved.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert activity stat: %w", err)
	}
	return &saved, nil
}

// FindCharacter resolves a Bungie character id to the stored character id
func (r *Repository) FindCharacter(ctx context.Context, bungieCharacterID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT character_id FROM characters WHERE bng_character_id = $1`, bungieCharacterID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to find character: %w", err)
	}
	return id, true, nil
}

// ListStats retrieves the stats of a character, newest first. A nil mode
// returns every mode.
func (r *Repository) ListStats(ctx context.Context, characterID int64, mode *int) ([]*Stat, error) {
	query := `
		SELECT stat_id, instance_id, activity_id, character_id, weapon_id, mode, period,
		       kills, precision_kills, precision_kills_percent, weapon_name, activity_name, character_class
		FROM activity_stats
		WHERE character_id = $1
	`
	args := []any{characterID}
	if mode != nil {
		query += ` AND mode = $2`
		args = append(args, *mode)
	}
	query += ` ORDER BY period DESC, instance_id DESC, weapon_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity stats: %w", err)
	}
	defer rows.Close()

	var stats []*Stat
	for rows.Next() {
		s := &Stat{}
		if err := rows.Scan(
			&s.ID, &s.InstanceID, &s.ActivityID, &s.CharacterID, &s.WeaponID, &s.Mode, &s.Period,
			&s.Kills, &s.PrecisionKills, &s.PrecisionKillsPercent, &s.WeaponName, &s.ActivityName, &s.CharacterClass,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
