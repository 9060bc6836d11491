package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/pkg/d2api"
)

const dateLayout = "January 2, 2006"

type searchView struct {
	Username  string
	Platform  string
	Platforms []platformOption
	Error     string
}

type platformOption struct {
	Value    int
	Label    string
	Selected bool
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type resultsView struct {
	User         *d2api.User
	Platform     string
	DateCreated  string
	LastPlayed   string
	CharacterIDs []string
	IDsMessage   string
	DestinyID    string

	Characters   []option
	Modes        []option
	ActivityName string
	Refresh      bool
	FilterError  string

	Stats      *d2api.Stats
	StatsError string
}

func newSearchView(username, platform string) *searchView {
	v := &searchView{Username: username, Platform: platform}
	for _, p := range destiny.SearchPlatforms() {
		value := int(p.Value)
		v.Platforms = append(v.Platforms, platformOption{
			Value:    value,
			Label:    p.Label,
			Selected: strconv.Itoa(value) == platform,
		})
	}
	return v
}

// formatDate renders an API date as "January 2, 2006". Empty input is N/A and
// anything unparseable is shown as given.
func formatDate(s string) string {
	if s == "" {
		return "N/A"
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return s
}

// characterIDList parses the stored id list; when nothing can be listed the
// second value is the message to show instead.
func characterIDList(raw string) ([]string, string) {
	if raw == "" {
		return nil, "No character IDs provided."
	}
	ids, err := destiny.ParseCharacterIDs(raw)
	if err != nil || len(ids) == 0 {
		return nil, "Could not parse character IDs."
	}
	return ids, ""
}

// characterLabel names a character by class, e.g. "Hunter"
func characterLabel(bngCharacterID, class string) string {
	if class == "" {
		prefix := bngCharacterID
		if len(prefix) > 6 {
			prefix = prefix[:6]
		}
		return "Character (" + prefix + "...)"
	}
	return strings.ToUpper(class[:1]) + strings.ToLower(class[1:])
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
