package destiny

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActivityMode is a Bungie activity mode type
type ActivityMode struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

var activityModes = []ActivityMode{
	{Value: 3, Label: "Strike"},
	{Value: 87, Label: "Lost Sector"},
	{Value: 69, Label: "Competitive Crucible"},
	{Value: 19, Label: "Iron Banner"},
	{Value: 84, Label: "Trials of Osiris"},
	{Value: 48, Label: "Rumble"},
	{Value: 70, Label: "Quickplay Crucible"},
	{Value: 82, Label: "Dungeon"},
	{Value: 4, Label: "Raid"},
}

// ActivityModes returns the filterable activity modes in display order
func ActivityModes() []ActivityMode {
	out := make([]ActivityMode, len(activityModes))
	copy(out, activityModes)
	return out
}

// ParseActivityMode resolves a mode given by number or by label (case-insensitive)
func ParseActivityMode(s string) (ActivityMode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		for _, m := range activityModes {
			if m.Value == n {
				return m, nil
			}
		}
		return ActivityMode{}, fmt.Errorf("unknown activity mode: %d", n)
	}
	for _, m := range activityModes {
		if strings.EqualFold(m.Label, s) {
			return m, nil
		}
	}
	return ActivityMode{}, fmt.Errorf("unknown activity mode: %q", s)
}

// ModeLabel returns the label for a mode value, or the number when it is not a filter option
func ModeLabel(value int) string {
	for _, m := range activityModes {
		if m.Value == value {
			return m.Label
		}
	}
	return strconv.Itoa(value)
}

// ErrMalformedCharacterIDs is returned when a stored character id list cannot be parsed
var ErrMalformedCharacterIDs = errors.New("malformed character id list")

// EncodeCharacterIDs renders ids the way they are stored on a player row: ['id1', 'id2']
func EncodeCharacterIDs(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ParseCharacterIDs parses a stored character id list. Single or double quotes
// are accepted. An empty input yields an empty list and no error.
func ParseCharacterIDs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &ids); err != nil {
		return []string{}, fmt.Errorf("%w: %v", ErrMalformedCharacterIDs, err)
	}
	if ids == nil {
		return []string{}, nil
	}
	return ids, nil
}
