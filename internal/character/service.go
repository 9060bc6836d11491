package character

import (
	"context"
	"errors"

	"github.com/d2sandbox/tracker/internal/gear"
)

// Common errors
var (
	ErrCharacterNotFound = errors.New("character not found")
)

// Service handles character business logic
type Service struct {
	repo *Repository
	gear *gear.Service
}

// NewService creates a new character service with dependencies injected
func NewService(repo *Repository, gearService *gear.Service) *Service {
	return &Service{repo: repo, gear: gearService}
}

// GetByBungieID retrieves a character and its loadout
func (s *Service) GetByBungieID(ctx context.Context, bungieID int64) (*CharacterWithLoadout, error) {
	c, err := s.repo.GetByBungieID(ctx, bungieID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCharacterNotFound
	}
	return s.withLoadout(ctx, c)
}

// ListByPlayer retrieves every character of a player with its loadout
func (s *Service) ListByPlayer(ctx context.Context, playerID int64) ([]*CharacterWithLoadout, error) {
	characters, err := s.repo.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	out := make([]*CharacterWithLoadout, 0, len(characters))
	for _, c := range characters {
		full, err := s.withLoadout(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	return out, nil
}

func (s *Service) withLoadout(ctx context.Context, c *Character) (*CharacterWithLoadout, error) {
	loadout, err := s.gear.GetLoadout(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &CharacterWithLoadout{Character: c, Loadout: loadout}, nil
}
