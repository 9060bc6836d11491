package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const playerColumns = `player_id, destiny_id, bng_id, bng_username, date_created, date_last_played, platform, character_ids`

// Repository handles player data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new player repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*Player, error) {
	p := &Player{}
	err := row.Scan(
		&p.ID,
		&p.DestinyID,
		&p.BungieID,
		&p.BungieUsername,
		&p.DateCreated,
		&p.DateLastPlayed,
		&p.Platform,
		&p.CharacterIDs,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert inserts a player or refreshes the row with the same destiny_id
func (r *Repository) Upsert(ctx context.Context, p *Player) (*Player, error) {
	query := `
		INSERT INTO players (destiny_id, bng_id, bng_username, date_created, date_last_played, platform, character_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (destiny_id) DO UPDATE SET
			bng_id = excluded.bng_id,
			bng_username = excluded.bng_username,
			date_created = excluded.date_created,
			date_last_played = excluded.date_last_played,
			platform = excluded.platform,
			character_ids = excluded.character_ids
		RETURNING ` + playerColumns

	saved, err := scanPlayer(r.db.QueryRowContext(ctx, query,
		p.DestinyID,
		p.BungieID,
		p.BungieUsername,
		p.DateCreated,
		p.DateLastPlayed,
		p.Platform,
		p.CharacterIDs,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert player: %w", err)
	}
	return saved, nil
}

func (r *Repository) getOne(ctx context.Context, what, where string, arg any) (*Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE ` + where

	p, err := scanPlayer(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player by %s: %w", what, err)
	}
	return p, nil
}

// GetByID retrieves a player by its row id
func (r *Repository) GetByID(ctx context.Context, id int64) (*Player, error) {
	return r.getOne(ctx, "id", `player_id = $1`, id)
}

// GetByDestinyID retrieves a player by Destiny membership id
func (r *Repository) GetByDestinyID(ctx context.Context, destinyID int64) (*Player, error) {
	return r.getOne(ctx, "destiny id", `destiny_id = $1`, destinyID)
}

// GetByUsername retrieves a player by Bungie Name, ignoring case
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Player, error) {
	return r.getOne(ctx, "username", `LOWER(bng_username) = LOWER($1)`, username)
}

// List retrieves players with pagination
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Player, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count players: %w", err)
	}

	query := `
		SELECT ` + playerColumns + `
		FROM players
		ORDER BY bng_username
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []*Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list players: %w", err)
	}

	return players, total, nil
}

// Delete removes a player and, through cascades, its characters and stats
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE player_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrPlayerNotFound
	}

	return nil
}
