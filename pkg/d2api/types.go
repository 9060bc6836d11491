package d2api

import "time"

// User is a tracked player as returned by /d2/user/{bng_username}
type User struct {
	PlayerID       int64  `json:"player_id"`
	DestinyID      int64  `json:"destiny_id"`
	BungieID       int64  `json:"bng_id"`
	BungieUsername string `json:"bng_username"`
	DateCreated    string `json:"date_created"`
	DateLastPlayed string `json:"date_last_played"`
	Platform       string `json:"platform"`
	CharacterIDs   string `json:"character_ids"`
}

// Weapon is a weapon definition
type Weapon struct {
	WeaponID    int64  `json:"weapon_id"`
	BngWeaponID int64  `json:"bng_weapon_id"`
	WeaponName  string `json:"weapon_name"`
	WeaponType  string `json:"weapon_type"`
	AmmoType    string `json:"ammo_type"`
	Slot        string `json:"slot"`
	DamageType  string `json:"damage_type"`
	Rarity      string `json:"rarity"`
}

// Armor is an armor definition
type Armor struct {
	ArmorID    int64  `json:"armor_id"`
	BngArmorID int64  `json:"bng_armor_id"`
	ArmorName  string `json:"armor_name"`
	Slot       string `json:"slot"`
	Rarity     string `json:"rarity"`
}

// EquippedWeapon is a weapon in a loadout
type EquippedWeapon struct {
	SlotType string  `json:"slot_type"`
	MainStat string  `json:"main_stat"`
	Weapon   *Weapon `json:"weapon"`
}

// EquippedArmor is an armor piece in a loadout
type EquippedArmor struct {
	SlotType string `json:"slot_type"`
	Armor    *Armor `json:"armor"`
}

// Character is a character with its loadout
type Character struct {
	CharacterID     int64            `json:"character_id"`
	BngCharacterID  string           `json:"bng_character_id"`
	PlayerID        int64            `json:"player_id"`
	Class           string           `json:"class"`
	DateLastPlayed  string           `json:"date_last_played"`
	EquippedWeapons []EquippedWeapon `json:"equipped_weapons"`
	EquippedArmor   []EquippedArmor  `json:"equipped_armor"`
}

// Mode is an activity mode filter option
type Mode struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// StatsFilter selects the stats to fetch. Mode wins over ActivityName.
type StatsFilter struct {
	CharacterID  string
	Mode         string
	ActivityName string
	Count        int
	Refresh      bool
}

// Stat is one weapon stat row
type Stat struct {
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

// WeaponTotal is a per-weapon aggregate
type WeaponTotal struct {
	WeaponName            string  `json:"weapon_name"`
	Activities            int     `json:"activities"`
	Kills                 int     `json:"kills"`
	PrecisionKills        int     `json:"precision_kills"`
	PrecisionKillsPercent float64 `json:"precision_kills_percent"`
}

// FiltersUsed echoes the filters the server applied
type FiltersUsed struct {
	CharacterID  string `json:"character_id"`
	Mode         *int   `json:"mode,omitempty"`
	ModeLabel    string `json:"mode_label,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
	Count        int    `json:"count"`
	Refreshed    bool   `json:"refreshed"`
}

// Stats is the payload of /d2/stats
type Stats struct {
	Message     string        `json:"message"`
	FiltersUsed FiltersUsed   `json:"filters_used"`
	Timestamp   time.Time     `json:"timestamp"`
	Stats       []Stat        `json:"stats"`
	Weapons     []WeaponTotal `json:"weapons"`
}
