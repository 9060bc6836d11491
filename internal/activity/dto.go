package activity

import "time"

// ActivityResponse represents an activity definition
type ActivityResponse struct {
	ActivityID      int64  `json:"activity_id"`
	BngActivityID   int64  `json:"bng_activity_id"`
	ActivityName    string `json:"activity_name"`
	Type            string `json:"type"`
	MaxFireteamSize int    `json:"max_fireteam_size"`
	Modifiers       string `json:"modifiers"`
}

// StatResponse represents one activity stat row
type StatResponse struct {
	StatID                int64   `json:"stat_id"`
	InstanceID            string  `json:"instance_id"`
	Mode                  int     `json:"mode"`
	ModeLabel             string  `json:"mode_label"`
	Period                string  `json:"period"`
	ActivityName          string  `json:"activity_name"`
	WeaponName            string  `json:"weapon_name"`
	CharacterClass        string  `json:"character_class"`
	Kills                 int     `json:"kills"`
	PrecisionKills        int     `json:"precision_kills"`
	PrecisionKillsPercent float64 `json:"precision_kills_percent"`
}

// WeaponTotal aggregates the stats of one weapon across the returned activities
type WeaponTotal struct {
	WeaponName            string  `json:"weapon_name"`
	Activities            int     `json:"activities"`
	Kills                 int     `json:"kills"`
	PrecisionKills        int     `json:"precision_kills"`
	PrecisionKillsPercent float64 `json:"precision_kills_percent"`
}

// FiltersUsed echoes the filters a stats query was answered with
type FiltersUsed struct {
	CharacterID  string `json:"character_id"`
	Mode         *int   `json:"mode,omitempty"`
	ModeLabel    string `json:"mode_label,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
	Count        int    `json:"count"`
	Refreshed    bool   `json:"refreshed"`
}

// StatsResponse is the payload of GET /d2/stats
type StatsResponse struct {
	Message     string          `json:"message"`
	FiltersUsed FiltersUsed     `json:"filters_used"`
	Timestamp   time.Time       `json:"timestamp"`
	Stats       []*StatResponse `json:"stats"`
	Weapons     []*WeaponTotal  `json:"weapons"`
}

// ToResponse converts an Activity model to an ActivityResponse DTO
func (a *Activity) ToResponse() *ActivityResponse {
	return &ActivityResponse{
		ActivityID:      a.ID,
		BngActivityID:   a.BungieID,
		ActivityName:    a.Name,
		Type:            a.Type,
		MaxFireteamSize: a.MaxFireteamSize,
		Modifiers:       a.Modifiers,
	}
}
