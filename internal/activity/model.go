package activity

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Activity is an activity definition stored from the manifest
type Activity struct {
	ID              int64
	BungieID        int64
	Name            string
	Type            string
	MaxFireteamSize int
	Modifiers       string
}

// Stat is the performance of one weapon used by one character in one
// activity instance
type Stat struct {
	ID                    int64
	InstanceID            int64
	ActivityID            int64
	CharacterID           int64
	WeaponID              int64
	Mode                  int
	Period                string
	Kills                 int
	PrecisionKills        int
	PrecisionKillsPercent float64
	WeaponName            string
	ActivityName          string
	CharacterClass        string

	// ReportMode marks Mode as the report's own mode rather than a requested
	// filter. A row already filed under another mode keeps it.
	ReportMode bool
}

// MaxModifiersLength is where the joined modifier list is cut off
const MaxModifiersLength = 100

// JoinModifiers renders modifier names as a comma separated list, truncated
// to MaxModifiersLength runes followed by "..."
func JoinModifiers(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			kept = append(kept, n)
		}
	}
	joined := strings.Join(kept, ", ")
	if utf8.RuneCountInString(joined) > MaxModifiersLength {
		joined = string([]rune(joined)[:MaxModifiersLength]) + "..."
	}
	return joined
}

// PrecisionPercent is precision kills as a share of kills, rounded to two
// decimals; zero when there are no kills.
func PrecisionPercent(kills, precisionKills int) float64 {
	if kills == 0 {
		return 0
	}
	return math.Round(float64(precisionKills)/float64(kills)*100*100) / 100
}
