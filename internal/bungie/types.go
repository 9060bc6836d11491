package bungie

// UserInfoCard identifies a Destiny membership
type UserInfoCard struct {
	MembershipID                int64  `json:"membershipId,string"`
	MembershipType              int    `json:"membershipType"`
	DisplayName                 string `json:"displayName"`
	BungieGlobalDisplayName     string `json:"bungieGlobalDisplayName"`
	BungieGlobalDisplayNameCode int    `json:"bungieGlobalDisplayNameCode"`
	CrossSaveOverride           int    `json:"crossSaveOverride"`
}

// GeneralUser is the Bungie.net account
type GeneralUser struct {
	MembershipID int64  `json:"membershipId,string"`
	UniqueName   string `json:"uniqueName"`
	DisplayName  string `json:"displayName"`
	FirstAccess  string `json:"firstAccess"`
}

// UserMemberships is the payload of GetMembershipsById
type UserMemberships struct {
	DestinyMemberships []UserInfoCard `json:"destinyMemberships"`
	BungieNetUser      GeneralUser    `json:"bungieNetUser"`
}

// ProfileResponse is GetProfile with the Profiles component
type ProfileResponse struct {
	Profile struct {
		Data struct {
			UserInfo       UserInfoCard `json:"userInfo"`
			DateLastPlayed string       `json:"dateLastPlayed"`
			CharacterIDs   []string     `json:"characterIds"`
		} `json:"data"`
	} `json:"profile"`
}

// CharacterComponent holds the fields used from the Characters component
type CharacterComponent struct {
	CharacterID    int64  `json:"characterId,string"`
	MembershipID   int64  `json:"membershipId,string"`
	MembershipType int    `json:"membershipType"`
	DateLastPlayed string `json:"dateLastPlayed"`
	ClassType      int    `json:"classType"`
	ClassHash      uint32 `json:"classHash"`
	Light          int    `json:"light"`
}

// ItemComponent is an equipped item
type ItemComponent struct {
	ItemHash       uint32 `json:"itemHash"`
	ItemInstanceID string `json:"itemInstanceId"`
	BucketHash     uint32 `json:"bucketHash"`
}

// CharacterResponse is GetCharacter with Characters and CharacterEquipment
type CharacterResponse struct {
	Character struct {
		Data CharacterComponent `json:"data"`
	} `json:"character"`
	Equipment struct {
		Data struct {
			Items []ItemComponent `json:"items"`
		} `json:"data"`
	} `json:"equipment"`
}

// ActivityDetails describes one played activity
type ActivityDetails struct {
	ReferenceID          uint32 `json:"referenceId"`
	DirectorActivityHash uint32 `json:"directorActivityHash"`
	InstanceID           int64  `json:"instanceId,string"`
	Mode                 int    `json:"mode"`
	Modes                []int  `json:"modes"`
	MembershipType       int    `json:"membershipType"`
}

// HistoricalActivity is one row of the activity history
type HistoricalActivity struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
}

// ActivityHistory is GetActivityHistory
type ActivityHistory struct {
	Activities []HistoricalActivity `json:"activities"`
}

// StatValue is Bungie's {basic: {value, displayValue}} wrapper
type StatValue struct {
	Basic struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
	} `json:"basic"`
}

// WeaponStats is a weapon entry of a PGCR participant
type WeaponStats struct {
	ReferenceID uint32               `json:"referenceId"`
	Values      map[string]StatValue `json:"values"`
}

// Value reads a named stat, zero when absent
func (w WeaponStats) Value(name string) float64 {
	return w.Values[name].Basic.Value
}

// PGCREntry is one participant of a post game carnage report
type PGCREntry struct {
	CharacterID int64 `json:"characterId,string"`
	Player      struct {
		DestinyUserInfo UserInfoCard `json:"destinyUserInfo"`
		CharacterClass  string       `json:"characterClass"`
		ClassHash       uint32       `json:"classHash"`
	} `json:"player"`
	Values   map[string]StatValue `json:"values"`
	Extended struct {
		Weapons []WeaponStats `json:"weapons"`
	} `json:"extended"`
}

// PostGameCarnageReport is the detailed report of an activity instance
type PostGameCarnageReport struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
	Entries         []PGCREntry     `json:"entries"`
}

// ManifestInfo is the metadata of the current content manifest
type ManifestInfo struct {
	Version                 string            `json:"version"`
	MobileWorldContentPaths map[string]string `json:"mobileWorldContentPaths"`
}
