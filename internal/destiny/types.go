// Package destiny holds the Destiny 2 enumerations shared by the ingestion
// pipeline, the API and the dashboard.
package destiny

import (
	"fmt"
	"strconv"
	"strings"
)

// Platform is a Bungie membership type
type Platform int

const (
	PlatformAll         Platform = -1
	PlatformXbox        Platform = 1
	PlatformPlayStation Platform = 2
	PlatformSteam       Platform = 3
	PlatformBlizzard    Platform = 4
	PlatformStadia      Platform = 5
	PlatformEpic        Platform = 6
)

var platformNames = map[Platform]string{
	PlatformXbox:        "XBOX",
	PlatformPlayStation: "PLAYSTATION",
	PlatformSteam:       "STEAM",
	PlatformBlizzard:    "BLIZZARD",
	PlatformStadia:      "STADIA",
	PlatformEpic:        "EPIC",
}

// String returns the stored platform name, e.g. "STEAM"
func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PLATFORM_%d", int(p))
}

// Valid reports whether p is a concrete membership type
func (p Platform) Valid() bool {
	_, ok := platformNames[p]
	return ok
}

// ParsePlatform accepts either a membership type number or a platform name
func ParsePlatform(s string) (Platform, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := Platform(n)
		if !p.Valid() {
			return 0, fmt.Errorf("unknown platform: %d", n)
		}
		return p, nil
	}
	for p, name := range platformNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform: %q", s)
}

// PlatformOption is a selectable platform in the search form
type PlatformOption struct {
	Value Platform `json:"value"`
	Label string   `json:"label"`
}

// SearchPlatforms lists the platforms a user can be registered on from the dashboard
func SearchPlatforms() []PlatformOption {
	return []PlatformOption{
		{Value: PlatformXbox, Label: "Xbox"},
		{Value: PlatformPlayStation, Label: "PlayStation"},
		{Value: PlatformSteam, Label: "Steam"},
		{Value: PlatformBlizzard, Label: "Blizzard"},
	}
}

// Class is a guardian class type
type Class int

const (
	ClassTitan   Class = 0
	ClassHunter  Class = 1
	ClassWarlock Class = 2
)

func (c Class) String() string {
	switch c {
	case ClassTitan:
		return "TITAN"
	case ClassHunter:
		return "HUNTER"
	case ClassWarlock:
		return "WARLOCK"
	default:
		return "UNKNOWN"
	}
}

// AmmoType is the ammo a weapon draws from
type AmmoType int

func (a AmmoType) String() string {
	switch a {
	case 1:
		return "PRIMARY"
	case 2:
		return "SPECIAL"
	case 3:
		return "HEAVY"
	default:
		return "NONE"
	}
}

// DamageType is the element of a weapon
type DamageType int

func (d DamageType) String() string {
	switch d {
	case 1:
		return "KINETIC"
	case 2:
		return "ARC"
	case 3:
		return "SOLAR"
	case 4:
		return "VOID"
	case 6:
		return "STASIS"
	case 7:
		return "STRAND"
	default:
		return "NONE"
	}
}

// Equipment slot hashes
const (
	SlotKinetic   uint32 = 1498876634
	SlotEnergy    uint32 = 2465295065
	SlotPower     uint32 = 953998645
	SlotHelmet    uint32 = 3448274439
	SlotGauntlets uint32 = 3551918588
	SlotChest     uint32 = 14239492
	SlotLegs      uint32 = 20886954
	SlotClassItem uint32 = 1585787867
)

// WeaponSlot maps an equipment slot hash to a weapon slot name
func WeaponSlot(hash uint32) (string, bool) {
	switch hash {
	case SlotKinetic:
		return "KINETIC", true
	case SlotEnergy:
		return "ENERGY", true
	case SlotPower:
		return "POWER", true
	}
	return "", false
}

// ArmorSlot maps an equipment slot hash to an armor slot name
func ArmorSlot(hash uint32) (string, bool) {
	switch hash {
	case SlotHelmet:
		return "HELMET", true
	case SlotGauntlets:
		return "GAUNTLETS", true
	case SlotChest:
		return "CHEST", true
	case SlotLegs:
		return "LEGS", true
	case SlotClassItem:
		return "CLASS_ITEM", true
	}
	return "", false
}

var rarities = map[string]bool{
	"COMMON":    true,
	"UNCOMMON":  true,
	"RARE":      true,
	"LEGENDARY": true,
	"EXOTIC":    true,
}

// Rarity extracts the tier from a display name like "Legendary Hand Cannon"
func Rarity(tierAndType string) (string, bool) {
	fields := strings.Fields(tierAndType)
	if len(fields) == 0 {
		return "", false
	}
	tier := strings.ToUpper(fields[0])
	return tier, rarities[tier]
}

var weaponTypes = map[string]bool{
	"AUTO_RIFLE":          true,
	"HAND_CANNON":         true,
	"PULSE_RIFLE":         true,
	"SCOUT_RIFLE":         true,
	"SIDEARM":             true,
	"SUBMACHINE_GUN":      true,
	"COMBAT_BOW":          true,
	"SHOTGUN":             true,
	"SNIPER_RIFLE":        true,
	"FUSION_RIFLE":        true,
	"TRACE_RIFLE":         true,
	"GRENADE_LAUNCHER":    true,
	"ROCKET_LAUNCHER":     true,
	"LINEAR_FUSION_RIFLE": true,
	"SWORD":               true,
	"MACHINE_GUN":         true,
	"GLAIVE":              true,
}

// WeaponType normalises an item type display name, e.g. "Hand Cannon" -> HAND_CANNON
func WeaponType(displayName string) (string, bool) {
	t := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(displayName), " ", "_"))
	return t, weaponTypes[t]
}
