package player

// AddPlayerRequest represents the request body for registering a player
type AddPlayerRequest struct {
	BungieUsername string `json:"bng_username"`
	Platform       int    `json:"platform"`
}

// PlayerResponse represents the response for a single player
type PlayerResponse struct {
	PlayerID       int64  `json:"player_id"`
	DestinyID      int64  `json:"destiny_id"`
	BungieID       int64  `json:"bng_id"`
	BungieUsername string `json:"bng_username"`
	DateCreated    string `json:"date_created"`
	DateLastPlayed string `json:"date_last_played"`
	Platform       string `json:"platform"`
	CharacterIDs   string `json:"character_ids"`
}

// ToResponse converts a Player model to a PlayerResponse DTO
func (p *Player) ToResponse() *PlayerResponse {
	return &PlayerResponse{
		PlayerID:       p.ID,
		DestinyID:      p.DestinyID,
		BungieID:       p.BungieID,
		BungieUsername: p.BungieUsername,
		DateCreated:    p.DateCreated,
		DateLastPlayed: p.DateLastPlayed,
		Platform:       p.Platform,
		CharacterIDs:   p.CharacterIDs,
	}
}
