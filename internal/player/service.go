package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/destiny"
)

// Common errors
var (
	ErrPlayerNotFound   = errors.New("user not found")
	ErrPlayerExists     = errors.New("user already exists")
	ErrInvalidName      = errors.New("invalid Bungie Name, expected Name#1234")
	ErrInvalidPlatform  = errors.New("invalid platform")
	ErrNotFoundAtBungie = errors.New("no Destiny account found for that Bungie Name")
	ErrUpstream         = errors.New("bungie api request failed")
	ErrRegistrationOff  = errors.New("user registration is not available")
)

// Registrar loads a player and its characters from Bungie into the database
type Registrar interface {
	RegisterPlayer(ctx context.Context, name bungie.BungieName, platform destiny.Platform) (*Player, error)
}

// Service handles player business logic
type Service struct {
	repo      *Repository
	registrar Registrar
}

// NewService creates a new player service. registrar may be nil, in which
// case Add reports ErrRegistrationOff.
func NewService(repo *Repository, registrar Registrar) *Service {
	return &Service{repo: repo, registrar: registrar}
}

// GetByUsername retrieves a player by Bungie Name
func (s *Service) GetByUsername(ctx context.Context, username string) (*Player, error) {
	p, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// GetByDestinyID retrieves a player by Destiny membership id
func (s *Service) GetByDestinyID(ctx context.Context, destinyID int64) (*Player, error) {
	p, err := s.repo.GetByDestinyID(ctx, destinyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// List retrieves players with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Player, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// Add registers a player that is not tracked yet
func (s *Service) Add(ctx context.Context, req *AddPlayerRequest) (*Player, error) {
	name, err := bungie.ParseBungieName(req.BungieUsername)
	if err != nil {
		return nil, ErrInvalidName
	}
	platform := destiny.Platform(req.Platform)
	if !platform.Valid() {
		return nil, ErrInvalidPlatform
	}

	existing, err := s.repo.GetByUsername(ctx, name.String())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPlayerExists
	}

	if s.registrar == nil {
		return nil, ErrRegistrationOff
	}

	p, err := s.registrar.RegisterPlayer(ctx, name, platform)
	if err != nil {
		if errors.Is(err, bungie.ErrNotFound) {
			return nil, ErrNotFoundAtBungie
		}
		var apiErr *bungie.APIError
		var netErr bungie.NetworkError
		if errors.As(err, &apiErr) || errors.As(err, &netErr) {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a player by Bungie Name
func (s *Service) Delete(ctx context.Context, username string) error {
	p, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}
