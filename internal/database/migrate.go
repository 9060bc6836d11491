package database

import (
	"context"
	"fmt"
	"strings"
)

// schema is written once with placeholders for the types that differ between
// Postgres and sqlite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		player_id {{serial}},
		destiny_id BIGINT NOT NULL UNIQUE,
		bng_id BIGINT NOT NULL,
		bng_username TEXT NOT NULL UNIQUE,
		date_created TEXT NOT NULL DEFAULT '',
		date_last_played TEXT NOT NULL DEFAULT '',
		platform TEXT NOT NULL,
		character_ids TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS characters (
		character_id {{serial}},
		bng_character_id BIGINT NOT NULL UNIQUE,
		player_id BIGINT NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		class TEXT NOT NULL,
		date_last_played TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS weapons (
		weapon_id {{serial}},
		bng_weapon_id BIGINT NOT NULL UNIQUE,
		weapon_name TEXT NOT NULL,
		weapon_type TEXT NOT NULL DEFAULT '',
		ammo_type TEXT NOT NULL DEFAULT '',
		slot TEXT NOT NULL DEFAULT '',
		damage_type TEXT NOT NULL DEFAULT '',
		rarity TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS armor (
		armor_id {{serial}},
		bng_armor_id BIGINT NOT NULL UNIQUE,
		armor_name TEXT NOT NULL,
		slot TEXT NOT NULL DEFAULT '',
		rarity TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		activity_id {{serial}},
		bng_activity_id BIGINT NOT NULL UNIQUE,
		activity_name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		max_fireteam_size INTEGER NOT NULL DEFAULT 0,
		modifiers TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS equipped_weapons (
		character_id BIGINT NOT NULL REFERENCES characters(character_id) ON DELETE CASCADE,
		weapon_id BIGINT NOT NULL REFERENCES weapons(weapon_id) ON DELETE CASCADE,
		slot_type TEXT NOT NULL,
		main_stat TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (character_id, slot_type)
	)`,
	`CREATE TABLE IF NOT EXISTS equipped_armor (
		character_id BIGINT NOT NULL REFERENCES characters(character_id) ON DELETE CASCADE,
		armor_id BIGINT NOT NULL REFERENCES armor(armor_id) ON DELETE CASCADE,
		slot_type TEXT NOT NULL,
		PRIMARY KEY (character_id, slot_type)
	)`,
	`CREATE TABLE IF NOT EXISTS activity_stats (
		stat_id {{serial}},
		instance_id BIGINT NOT NULL,
		activity_id BIGINT NOT NULL REFERENCES activities(activity_id),
		character_id BIGINT NOT NULL REFERENCES characters(character_id) ON DELETE CASCADE,
		weapon_id BIGINT NOT NULL REFERENCES weapons(weapon_id),
		mode INTEGER NOT NULL DEFAULT 0,
		period TEXT NOT NULL DEFAULT '',
		kills INTEGER NOT NULL DEFAULT 0,
		precision_kills INTEGER NOT NULL DEFAULT 0,
		precision_kills_percent {{float}} NOT NULL DEFAULT 0,
		weapon_name TEXT NOT NULL DEFAULT '',
		activity_name TEXT NOT NULL DEFAULT '',
		character_class TEXT NOT NULL DEFAULT '',
		UNIQUE (instance_id, character_id, weapon_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_stats_character ON activity_stats (character_id, mode)`,
}

func (d Dialect) replacer() *strings.Replacer {
	switch d {
	case SQLite:
		return strings.NewReplacer(
			"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{float}}", "REAL",
		)
	default:
		return strings.NewReplacer(
			"{{serial}}", "BIGSERIAL PRIMARY KEY",
			"{{float}}", "DOUBLE PRECISION",
		)
	}
}

// Migrate creates the tracker tables if they do not exist
func Migrate(ctx context.Context, db *DB) error {
	r := db.Dialect.replacer()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
