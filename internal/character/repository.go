package character

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles character data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new character repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts a character or refreshes the row with the same bng_character_id
func (r *Repository) Upsert(ctx context.Context, c *Character) (*Character, error) {
	query := `
		INSERT INTO characters (bng_character_id, player_id, class, date_last_played)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bng_character_id) DO UPDATE SET
			player_id = excluded.player_id,
			class = excluded.class,
			date_last_played = excluded.date_last_played
		RETURNING character_id, bng_character_id, player_id, class, date_last_played
	`

	saved := &Character{}
	err := r.db.QueryRowContext(ctx, query, c.BungieCharacterID, c.PlayerID, c.Class, c.DateLastPlayed).Scan(
		&saved.ID, &saved.BungieCharacterID, &saved.PlayerID, &saved.Class, &saved.DateLastPlayed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert character: %w", err)
	}
	return saved, nil
}

// GetByBungieID retrieves a character by its Bungie character id
func (r *Repository) GetByBungieID(ctx context.Context, bungieID int64) (*Character, error) {
	query := `
		SELECT character_id, bng_character_id, player_id, class, date_last_played
		FROM characters
		WHERE bng_character_id = $1
	`

	c := &Character{}
	err := r.db.QueryRowContext(ctx, query, bungieID).Scan(
		&c.ID, &c.BungieCharacterID, &c.PlayerID, &c.Class, &c.DateLastPlayed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

// ListByPlayer retrieves the characters of a player, most recently played first
func (r *Repository) ListByPlayer(ctx context.Context, playerID int64) ([]*Character, error) {
	query := `
		SELECT character_id, bng_character_id, player_id, class, date_last_played
		FROM characters
		WHERE player_id = $1
		ORDER BY date_last_played DESC, character_id
	`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []*Character
	for rows.Next() {
		c := &Character{}
		if err := rows.Scan(&c.ID, &c.BungieCharacterID, &c.PlayerID, &c.Class, &c.DateLastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}
