package character

import "github.com/d2sandbox/tracker/internal/gear"

// Character is a guardian owned by a tracked player
type Character struct {
	ID                int64
	BungieCharacterID int64
	PlayerID          int64
	Class             string
	DateLastPlayed    string
}

// CharacterWithLoadout is a character together with its equipped gear
type CharacterWithLoadout struct {
	*Character
	Loadout *gear.Loadout
}
