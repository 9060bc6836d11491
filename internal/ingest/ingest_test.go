package ingest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/d2sandbox/tracker/internal/activity"
	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/character"
	"github.com/d2sandbox/tracker/internal/database"
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/gear"
	"github.com/d2sandbox/tracker/internal/gear/mainstat"
	"github.com/d2sandbox/tracker/internal/logging"
	"github.com/d2sandbox/tracker/internal/manifest"
	"github.com/d2sandbox/tracker/internal/player"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	hunterID  int64 = 2305843009301648411
	warlockID int64 = 2305843009301648412
	rivalID   int64 = 2305843009301648421

	guardianDestinyID int64 = 4611686018467284386
	rivalDestinyID    int64 = 4611686018467284999

	raidHash uint32 = 910380154
)

type fakeAPI struct {
	mu         sync.Mutex
	cards      []bungie.UserInfoCard
	members    map[int64]*bungie.UserMemberships
	profiles   map[int64]*bungie.ProfileResponse
	characters map[int64]*bungie.CharacterResponse
	history    *bungie.ActivityHistory
	reports    map[int64]*bungie.PostGameCarnageReport
	modes      []int
	fetched    int
	throttled  map[int64]bool
}

func (f *fakeAPI) SearchByBungieName(_ context.Context, name bungie.BungieName, membershipType int) ([]bungie.UserInfoCard, error) {
	if membershipType != -1 {
		return nil, errors.New("expected search across all platforms")
	}
	var out []bungie.UserInfoCard
	for _, c := range f.cards {
		if c.BungieGlobalDisplayName == name.DisplayName && c.BungieGlobalDisplayNameCode == name.Code {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetMembershipsByID(_ context.Context, id int64, _ int) (*bungie.UserMemberships, error) {
	if m, ok := f.members[id]; ok {
		return m, nil
	}
	return nil, &bungie.APIError{Code: bungie.ErrorCodeAccountNotFound, Status: "UserCannotFindRequestedUser"}
}

func (f *fakeAPI) GetProfile(_ context.Context, _ int, id int64) (*bungie.ProfileResponse, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, &bungie.APIError{Code: bungie.ErrorCodeAccountNotFound}
}

func (f *fakeAPI) GetCharacter(_ context.Context, _ int, _ int64, characterID int64) (*bungie.CharacterResponse, error) {
	if c, ok := f.characters[characterID]; ok {
		return c, nil
	}
	return nil, &bungie.APIError{Code: bungie.ErrorCodeAccountNotFound}
}

func (f *fakeAPI) GetActivityHistory(_ context.Context, _ int, _ int64, _ int64, mode, count, _ int) (*bungie.ActivityHistory, error) {
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
	h := &bungie.ActivityHistory{}
	if f.history != nil && len(f.history.Activities) > 0 {
		n := count
		if n > len(f.history.Activities) {
			n = len(f.history.Activities)
		}
		h.Activities = f.history.Activities[:n]
	}
	return h, nil
}

func (f *fakeAPI) GetPostGameCarnageReport(_ context.Context, instanceID int64) (*bungie.PostGameCarnageReport, error) {
	f.mu.Lock()
	f.fetched++
	throttled := f.throttled[instanceID]
	delete(f.throttled, instanceID)
	f.mu.Unlock()
	if throttled {
		return nil, &bungie.APIError{Code: bungie.ErrorCodeThrottled, Status: "ThrottleLimitExceeded"}
	}
	if r, ok := f.reports[instanceID]; ok {
		return r, nil
	}
	return nil, bungie.NetworkError{Err: errors.New("connection reset")}
}

func card(id int64, platform destiny.Platform, name string, code int) bungie.UserInfoCard {
	return bungie.UserInfoCard{
		MembershipID:                id,
		MembershipType:              int(platform),
		DisplayName:                 name,
		BungieGlobalDisplayName:     name,
		BungieGlobalDisplayNameCode: code,
	}
}

func profile(lastPlayed string, characterIDs ...int64) *bungie.ProfileResponse {
	p := &bungie.ProfileResponse{}
	p.Profile.Data.DateLastPlayed = lastPlayed
	for _, id := range characterIDs {
		p.Profile.Data.CharacterIDs = append(p.Profile.Data.CharacterIDs, strconv.FormatInt(id, 10))
	}
	return p
}

func characterResp(id int64, class destiny.Class, items ...uint32) *bungie.CharacterResponse {
	c := &bungie.CharacterResponse{}
	c.Character.Data = bungie.CharacterComponent{
		CharacterID:    id,
		ClassType:      int(class),
		DateLastPlayed: "2024-06-01T18:00:00Z",
	}
	for _, h := range items {
		c.Equipment.Data.Items = append(c.Equipment.Data.Items, bungie.ItemComponent{ItemHash: h})
	}
	return c
}

func weaponUse(hash uint32, kills, precision float64) bungie.WeaponStats {
	value := func(v float64) bungie.StatValue {
		var s bungie.StatValue
		s.Basic.Value = v
		return s
	}
	return bungie.WeaponStats{
		ReferenceID: hash,
		Values: map[string]bungie.StatValue{
			"uniqueWeaponKills":          value(kills),
			"uniqueWeaponPrecisionKills": value(precision),
		},
	}
}

func entry(characterID int64, who bungie.UserInfoCard, weapons ...bungie.WeaponStats) bungie.PGCREntry {
	e := bungie.PGCREntry{CharacterID: characterID}
	e.Player.DestinyUserInfo = who
	e.Extended.Weapons = weapons
	return e
}

func report(instanceID int64, period string, entries ...bungie.PGCREntry) *bungie.PostGameCarnageReport {
	return &bungie.PostGameCarnageReport{
		Period: period,
		ActivityDetails: bungie.ActivityDetails{
			DirectorActivityHash: raidHash,
			InstanceID:           instanceID,
			Mode:                 4,
		},
		Entries: entries,
	}
}

func defs() *manifest.Static {
	s := &manifest.Static{
		Items:      map[uint32]*manifest.InventoryItem{},
		Activities: map[uint32]*manifest.ActivityDefinition{},
	}
	add := func(hash uint32, name, typeName string, slot uint32) {
		it := &manifest.InventoryItem{
			Hash:                       hash,
			DisplayProperties:          manifest.DisplayProperties{Name: name},
			ItemTypeDisplayName:        typeName,
			ItemTypeAndTierDisplayName: "Legendary " + typeName,
		}
		it.EquippingBlock.EquipmentSlotTypeHash = slot
		s.Items[hash] = it
	}
	add(1, "Fatebringer", "Hand Cannon", destiny.SlotKinetic)
	add(2, "Found Verdict", "Shotgun", destiny.SlotEnergy)
	add(3, "Gjallarhorn", "Rocket Launcher", destiny.SlotPower)
	add(4, "Helm", "Helmet", destiny.SlotHelmet)
	add(5, "Gloves", "Gauntlets", destiny.SlotGauntlets)
	add(6, "Robes", "Chest Armor", destiny.SlotChest)
	add(7, "Boots", "Leg Armor", destiny.SlotLegs)
	add(8, "Bond", "Warlock Bond", destiny.SlotClassItem)

	raid := &manifest.ActivityDefinition{Hash: raidHash, DisplayProperties: manifest.DisplayProperties{Name: "Vault of Glass"}}
	raid.Matchmaking.MaxPlayers = 6
	s.Activities[raidHash] = raid
	return s
}

type fixture struct {
	api        *fakeAPI
	loader     *Loader
	players    *player.Repository
	characters *character.Repository
	gear       *gear.Service
	activities *activity.Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	guardian := card(guardianDestinyID, destiny.PlatformSteam, "Guardian", 1)
	rival := card(rivalDestinyID, destiny.PlatformXbox, "Rival", 42)

	api := &fakeAPI{
		cards: []bungie.UserInfoCard{
			card(guardianDestinyID-1, destiny.PlatformXbox, "Guardian", 1),
			guardian,
			rival,
		},
		members: map[int64]*bungie.UserMemberships{
			guardianDestinyID: {
				DestinyMemberships: []bungie.UserInfoCard{guardian},
				BungieNetUser:      bungie.GeneralUser{MembershipID: 20010, FirstAccess: "2017-09-06T17:00:00Z"},
			},
			rivalDestinyID: {
				DestinyMemberships: []bungie.UserInfoCard{rival},
				BungieNetUser:      bungie.GeneralUser{MembershipID: 20011, FirstAccess: "2018-01-01T00:00:00Z"},
			},
		},
		profiles: map[int64]*bungie.ProfileResponse{
			guardianDestinyID: profile("2024-06-01T18:00:00Z", hunterID, warlockID),
			rivalDestinyID:    profile("2024-05-01T18:00:00Z", rivalID),
		},
		characters: map[int64]*bungie.CharacterResponse{
			hunterID:  characterResp(hunterID, destiny.ClassHunter, 1, 2, 3, 4, 5, 6, 7, 8, 900, 901),
			warlockID: characterResp(warlockID, destiny.ClassWarlock, 1, 2, 3),
			rivalID:   characterResp(rivalID, destiny.ClassTitan),
		},
		history: &bungie.ActivityHistory{Activities: []bungie.HistoricalActivity{
			{Period: "2024-06-03T20:00:00Z", ActivityDetails: bungie.ActivityDetails{InstanceID: 103}},
			{Period: "2024-06-02T20:00:00Z", ActivityDetails: bungie.ActivityDetails{InstanceID: 102}},
			{Period: "2024-06-01T20:00:00Z", ActivityDetails: bungie.ActivityDetails{InstanceID: 101}},
		}},
		reports: map[int64]*bungie.PostGameCarnageReport{
			103: report(103, "2024-06-03T20:00:00Z",
				entry(hunterID, guardian, weaponUse(1, 10, 4), weaponUse(3, 2, 0)),
				entry(rivalID, rival, weaponUse(2, 7, 0)),
			),
			101: report(101, "2024-06-01T20:00:00Z",
				entry(hunterID, guardian, weaponUse(1, 5, 5), weaponUse(777, 1, 0)),
			),
		},
	}

	f := &fixture{
		api:        api,
		players:    player.NewRepository(db.DB),
		characters: character.NewRepository(db.DB),
	}
	d := defs()
	f.gear = gear.NewService(gear.NewRepository(db.DB), d, mainstat.NewFactory())
	f.activities = activity.NewService(activity.NewRepository(db.DB), d, nil)
	f.loader = NewLoader(api, f.players, f.characters, f.gear, f.activities, logging.Discard(), opts)
	return f
}

func TestRegisterPlayer(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 2})
	ctx := context.Background()

	p, err := f.loader.RegisterPlayer(ctx, bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformSteam)
	require.NoError(t, err)
	assert.Equal(t, guardianDestinyID, p.DestinyID)
	assert.Equal(t, int64(20010), p.BungieID)
	assert.Equal(t, "Guardian#0001", p.BungieUsername)
	assert.Equal(t, "STEAM", p.Platform)
	assert.Equal(t, "2017-09-06", p.DateCreated)
	assert.Equal(t, "2024-06-01", p.DateLastPlayed)

	ids, err := p.CharacterIDList()
	require.NoError(t, err)
	assert.Equal(t, []string{strconv.FormatInt(hunterID, 10), strconv.FormatInt(warlockID, 10)}, ids)

	hunter, err := f.characters.GetByBungieID(ctx, hunterID)
	require.NoError(t, err)
	require.NotNil(t, hunter)
	assert.Equal(t, "HUNTER", hunter.Class)
	assert.Equal(t, "2024-06-01", hunter.DateLastPlayed)

	// only the first eight equipped items count as a loadout
	loadout, err := f.gear.GetLoadout(ctx, hunter.ID)
	require.NoError(t, err)
	assert.Len(t, loadout.Weapons, 3)
	assert.Len(t, loadout.Armor, 5)

	warlock, err := f.characters.GetByBungieID(ctx, warlockID)
	require.NoError(t, err)
	loadout, err = f.gear.GetLoadout(ctx, warlock.ID)
	require.NoError(t, err)
	assert.Empty(t, loadout.Weapons)
	assert.Empty(t, loadout.Armor)
}

func TestRegisterPlayerPicksPlatform(t *testing.T) {
	f := newFixture(t, Options{})
	f.api.members[guardianDestinyID-1] = f.api.members[guardianDestinyID]
	f.api.profiles[guardianDestinyID-1] = profile("2024-06-01T18:00:00Z")

	p, err := f.loader.RegisterPlayer(context.Background(), bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformXbox)
	require.NoError(t, err)
	assert.Equal(t, guardianDestinyID-1, p.DestinyID)
	assert.Equal(t, "XBOX", p.Platform)
}

func TestRegisterPlayerNotFound(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.loader.RegisterPlayer(context.Background(), bungie.BungieName{DisplayName: "Nobody", Code: 9}, destiny.PlatformSteam)
	assert.ErrorIs(t, err, bungie.ErrNotFound)
}

func TestLoadActivityStats(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 3})
	ctx := context.Background()

	_, err := f.loader.LoadActivityStats(ctx, hunterID, 4, 3)
	assert.ErrorIs(t, err, ErrCharacterNotTracked)

	_, err = f.loader.RegisterPlayer(ctx, bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformSteam)
	require.NoError(t, err)

	summary, err := f.loader.LoadActivityStats(ctx, hunterID, 4, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Instances)
	assert.Equal(t, 4, summary.Stats)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, f.api.fetched)

	resp, err := f.activities.Query(ctx, activity.StatsQuery{CharacterID: hunterID, Mode: intPtr(4), Count: 5})
	require.NoError(t, err)
	require.Len(t, resp.Stats, 4)
	assert.Equal(t, "103", resp.Stats[0].InstanceID)
	assert.Equal(t, "Vault of Glass", resp.Stats[0].ActivityName)
	assert.Equal(t, "HUNTER", resp.Stats[0].CharacterClass)

	totals := map[string]int{}
	for _, w := range resp.Weapons {
		totals[w.WeaponName] = w.Kills
	}
	assert.Equal(t, map[string]int{"Fatebringer": 15, "Gjallarhorn": 2, "Unknown Weapon 777": 1}, totals)
	assert.Equal(t, 60.0, resp.Weapons[0].PrecisionKillsPercent)

	// the rival is not recorded without participants
	rival, err := f.characters.GetByBungieID(ctx, rivalID)
	require.NoError(t, err)
	assert.Nil(t, rival)

	// reloading is idempotent
	_, err = f.loader.LoadActivityStats(ctx, hunterID, 4, 3)
	require.NoError(t, err)
	resp, err = f.activities.Query(ctx, activity.StatsQuery{CharacterID: hunterID, Mode: intPtr(4), Count: 5})
	require.NoError(t, err)
	assert.Len(t, resp.Stats, 4)
}

func TestLoadActivityStatsRetriesThrottled(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 2})
	f.api.throttled = map[int64]bool{103: true}
	ctx := context.Background()

	_, err := f.loader.RegisterPlayer(ctx, bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformSteam)
	require.NoError(t, err)

	summary, err := f.loader.LoadActivityStats(ctx, hunterID, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Instances)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 4, f.api.fetched)
}

func TestLoadActivityStatsParticipants(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 2, Participants: true})
	ctx := context.Background()

	_, err := f.loader.RegisterPlayer(ctx, bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformSteam)
	require.NoError(t, err)

	summary, err := f.loader.LoadActivityStats(ctx, hunterID, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Stats)
	assert.Equal(t, 1, summary.Players)

	rivalPlayer, err := f.players.GetByDestinyID(ctx, rivalDestinyID)
	require.NoError(t, err)
	require.NotNil(t, rivalPlayer)
	assert.Equal(t, "Rival#0042", rivalPlayer.BungieUsername)

	resp, err := f.activities.Query(ctx, activity.StatsQuery{CharacterID: rivalID})
	require.NoError(t, err)
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, "Found Verdict", resp.Stats[0].WeaponName)
	assert.Equal(t, "TITAN", resp.Stats[0].CharacterClass)
	// mode 0 files stats under the activity's own mode
	assert.Equal(t, 4, resp.Stats[0].Mode)
}

func TestLoadBulk(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 2})
	ctx := context.Background()

	summary, err := f.loader.LoadBulk(ctx, BulkRequest{
		Names:              []string{"Guardian#0001", "nohash", "Nobody#0009"},
		Platform:           destiny.PlatformSteam,
		Members:            []Member{{DestinyID: rivalDestinyID, Platform: destiny.PlatformXbox}},
		Modes:              []int{4},
		Count:              3,
		FirstCharacterOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Players)
	assert.Equal(t, 3, summary.Characters)
	assert.Equal(t, 4, summary.Skipped)
	assert.Equal(t, []int{4, 4}, f.api.modes)
}

func TestRefreshStatsSatisfiesRefresher(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 1})
	f.activities.SetRefresher(f.loader)
	ctx := context.Background()

	_, err := f.loader.RegisterPlayer(ctx, bungie.BungieName{DisplayName: "Guardian", Code: 1}, destiny.PlatformSteam)
	require.NoError(t, err)

	resp, err := f.activities.Query(ctx, activity.StatsQuery{CharacterID: hunterID, ActivityName: "vault"})
	require.NoError(t, err)
	assert.True(t, resp.FiltersUsed.Refreshed)
	assert.Len(t, resp.Stats, 4)
	assert.Equal(t, []int{0}, f.api.modes)
}

func intPtr(v int) *int { return &v }
