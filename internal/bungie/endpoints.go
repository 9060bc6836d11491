package bungie

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BungieName is a player-facing name of the form Name#1234
type BungieName struct {
	DisplayName string `json:"displayName"`
	Code        int    `json:"displayNameCode"`
}

func (n BungieName) String() string {
	return fmt.Sprintf("%s#%04d", n.DisplayName, n.Code)
}

// ParseBungieName splits "Name#1234" on the last '#'
func ParseBungieName(s string) (BungieName, error) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, "#")
	if i <= 0 || i == len(s)-1 {
		return BungieName{}, fmt.Errorf("invalid bungie name %q: expected Name#1234", s)
	}
	code, err := strconv.Atoi(s[i+1:])
	if err != nil || code < 0 {
		return BungieName{}, fmt.Errorf("invalid bungie name %q: code must be numeric", s)
	}
	return BungieName{DisplayName: s[:i], Code: code}, nil
}

// SearchByBungieName resolves a Bungie Name to its Destiny memberships.
// membershipType -1 searches every platform.
func (c *Client) SearchByBungieName(ctx context.Context, name BungieName, membershipType int) ([]UserInfoCard, error) {
	var cards []UserInfoCard
	path := fmt.Sprintf("/Destiny2/SearchDestinyPlayerByBungieName/%d/", membershipType)
	if err := c.post(ctx, path, name, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetMembershipsByID returns the Bungie.net account behind a membership
func (c *Client) GetMembershipsByID(ctx context.Context, membershipID int64, membershipType int) (*UserMemberships, error) {
	var out UserMemberships
	path := fmt.Sprintf("/User/GetMembershipsById/%d/%d/", membershipID, membershipType)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile returns the Profiles component (100) of a Destiny membership
func (c *Client) GetProfile(ctx context.Context, membershipType int, membershipID int64) (*ProfileResponse, error) {
	var out ProfileResponse
	path := fmt.Sprintf("/Destiny2/%d/Profile/%d/?components=100", membershipType, membershipID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCharacter returns the Characters (200) and CharacterEquipment (205) components
func (c *Client) GetCharacter(ctx context.Context, membershipType int, membershipID, characterID int64) (*CharacterResponse, error) {
	var out CharacterResponse
	path := fmt.Sprintf("/Destiny2/%d/Profile/%d/Character/%d/?components=200,205", membershipType, membershipID, characterID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetActivityHistory lists recent activities of a character for one mode
func (c *Client) GetActivityHistory(ctx context.Context, membershipType int, membershipID, characterID int64, mode, count, page int) (*ActivityHistory, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("mode", strconv.Itoa(mode))
	q.Set("page", strconv.Itoa(page))

	var out ActivityHistory
	path := fmt.Sprintf("/Destiny2/%d/Account/%d/Character/%d/Stats/Activities/?%s",
		membershipType, membershipID, characterID, q.Encode())
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPostGameCarnageReport returns the full report of an activity instance
func (c *Client) GetPostGameCarnageReport(ctx context.Context, instanceID int64) (*PostGameCarnageReport, error) {
	var out PostGameCarnageReport
	path := fmt.Sprintf("/Destiny2/Stats/PostGameCarnageReport/%d/", instanceID)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetManifest returns the current manifest metadata
func (c *Client) GetManifest(ctx context.Context) (*ManifestInfo, error) {
	var out ManifestInfo
	if err := c.get(ctx, "/Destiny2/Manifest/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
