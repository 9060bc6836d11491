package character

import (
	"strconv"

	"github.com/d2sandbox/tracker/internal/gear"
)

// CharacterResponse represents a character with its equipment
type CharacterResponse struct {
	CharacterID     int64                          `json:"character_id"`
	BngCharacterID  string                         `json:"bng_character_id"`
	PlayerID        int64                          `json:"player_id"`
	Class           string                         `json:"class"`
	DateLastPlayed  string                         `json:"date_last_played"`
	EquippedWeapons []*gear.EquippedWeaponResponse `json:"equipped_weapons"`
	EquippedArmor   []*gear.EquippedArmorResponse  `json:"equipped_armor"`
}

// ToResponse converts a character and its loadout to a CharacterResponse DTO.
// Character ids exceed the precision of JSON numbers in browsers, so they
// are rendered as strings.
func (c *CharacterWithLoadout) ToResponse() *CharacterResponse {
	resp := &CharacterResponse{
		CharacterID:     c.ID,
		BngCharacterID:  formatID(c.BungieCharacterID),
		PlayerID:        c.PlayerID,
		Class:           c.Class,
		DateLastPlayed:  c.DateLastPlayed,
		EquippedWeapons: []*gear.EquippedWeaponResponse{},
		EquippedArmor:   []*gear.EquippedArmorResponse{},
	}
	if c.Loadout == nil {
		return resp
	}
	for _, w := range c.Loadout.Weapons {
		resp.EquippedWeapons = append(resp.EquippedWeapons, w.ToResponse())
	}
	for _, a := range c.Loadout.Armor {
		resp.EquippedArmor = append(resp.EquippedArmor, a.ToResponse())
	}
	return resp
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
