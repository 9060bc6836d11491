package player

import "github.com/d2sandbox/tracker/internal/destiny"

// Player represents a tracked Destiny account
type Player struct {
	ID             int64  `json:"player_id"`
	DestinyID      int64  `json:"destiny_id"`
	BungieID       int64  `json:"bng_id"`
	BungieUsername string `json:"bng_username"`
	DateCreated    string `json:"date_created"`
	DateLastPlayed string `json:"date_last_played"`
	Platform       string `json:"platform"`
	CharacterIDs   string `json:"character_ids"`
}

// CharacterIDList parses the stored character id list
func (p *Player) CharacterIDList() ([]string, error) {
	return destiny.ParseCharacterIDs(p.CharacterIDs)
}
