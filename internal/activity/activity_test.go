package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sandbox/tracker/internal/database"
	"github.com/d2sandbox/tracker/internal/manifest"
)

const bngCharacterID int64 = 2305843009301648414

type fixture struct {
	svc         *Service
	repo        *Repository
	characterID int64
	weapons     map[string]int64
}

func newFixture(t *testing.T, defs manifest.Definitions) *fixture {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO players (destiny_id, bng_id, bng_username, platform) VALUES (1, 1, 'Guardian#0001', 'STEAM')`)
	require.NoError(t, err)

	f := &fixture{weapons: map[string]int64{}}
	err = db.QueryRowContext(ctx, `INSERT INTO characters (bng_character_id, player_id, class) VALUES ($1, 1, 'HUNTER') RETURNING character_id`, bngCharacterID).Scan(&f.characterID)
	require.NoError(t, err)

	for i, name := range []string{"Ace of Spades", "Fatebringer", "Gjallarhorn"} {
		var id int64
		err := db.QueryRowContext(ctx, `INSERT INTO weapons (bng_weapon_id, weapon_name) VALUES ($1, $2) RETURNING weapon_id`, i+1, name).Scan(&id)
		require.NoError(t, err)
		f.weapons[name] = id
	}

	if defs == nil {
		defs = &manifest.Static{}
	}
	f.repo = NewRepository(db.DB)
	f.svc = NewService(f.repo, defs, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) record(t *testing.T, instance int64, activityName string, mode int, period, weapon string, kills, pk int) {
	t.Helper()
	ctx := context.Background()
	a, err := f.repo.UpsertActivity(ctx, &Activity{BungieID: int64(len(activityName)) * 1000, Name: activityName})
	require.NoError(t, err)
	_, err = f.svc.RecordStat(ctx, &Stat{
		InstanceID:     instance,
		ActivityID:     a.ID,
		CharacterID:    f.characterID,
		WeaponID:       f.weapons[weapon],
		Mode:           mode,
		Period:         period,
		Kills:          kills,
		PrecisionKills: pk,
		WeaponName:     weapon,
		ActivityName:   activityName,
		CharacterClass: "HUNTER",
	})
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }

func TestJoinModifiers(t *testing.T) {
	assert.Equal(t, "", JoinModifiers(nil))
	assert.Equal(t, "Arc Burn, Champions", JoinModifiers([]string{"Arc Burn", "", "Champions"}))

	long := JoinModifiers([]string{strings.Repeat("a", 60), strings.Repeat("b", 60)})
	assert.Len(t, long, MaxModifiersLength+3)
	assert.True(t, strings.HasSuffix(long, "..."))

	// cut by runes, not bytes
	curly := JoinModifiers([]string{strings.Repeat("a", 99) + "’s"})
	assert.True(t, utf8.ValidString(curly))
	assert.Equal(t, strings.Repeat("a", 99)+"’...", curly)

	fits := strings.Repeat("’", 40)
	assert.Equal(t, fits, JoinModifiers([]string{fits}))
}

func TestPrecisionPercent(t *testing.T) {
	assert.Equal(t, 0.0, PrecisionPercent(0, 0))
	assert.Equal(t, 33.33, PrecisionPercent(3, 1))
	assert.Equal(t, 66.67, PrecisionPercent(3, 2))
	assert.Equal(t, 100.0, PrecisionPercent(4, 4))
}

func TestResolveActivity(t *testing.T) {
	def := &manifest.ActivityDefinition{
		Hash:              910380154,
		DisplayProperties: manifest.DisplayProperties{Name: "Deep Stone Crypt"},
		ActivityTypeHash:  2043403989,
	}
	def.Matchmaking.MaxPlayers = 6
	def.Modifiers = []struct {
		ActivityModifierHash uint32 `json:"activityModifierHash"`
	}{{ActivityModifierHash: 1}, {ActivityModifierHash: 2}, {ActivityModifierHash: 3}}

	defs := &manifest.Static{
		Activities:    map[uint32]*manifest.ActivityDefinition{def.Hash: def},
		ActivityTypes: map[uint32]*manifest.ActivityTypeDefinition{2043403989: {DisplayProperties: manifest.DisplayProperties{Name: "Raid"}}},
		ActivityModifiers: map[uint32]*manifest.ActivityModifierDefinition{
			1: {DisplayProperties: manifest.DisplayProperties{Name: "Champions"}},
			2: {DisplayProperties: manifest.DisplayProperties{Name: "Match Game"}},
		},
	}
	f := newFixture(t, defs)

	a, err := f.svc.ResolveActivity(context.Background(), def.Hash)
	require.NoError(t, err)
	assert.Equal(t, "Deep Stone Crypt", a.Name)
	assert.Equal(t, "Raid", a.Type)
	assert.Equal(t, 6, a.MaxFireteamSize)
	assert.Equal(t, "Champions, Match Game", a.Modifiers)

	unknown, err := f.svc.ResolveActivity(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Activity 77", unknown.Name)
}

func TestQueryLimitsInstancesNewestFirst(t *testing.T) {
	f := newFixture(t, nil)
	f.record(t, 1, "The Corrupted", 3, "2024-06-01T10:00:00Z", "Ace of Spades", 10, 5)
	f.record(t, 2, "The Corrupted", 3, "2024-06-02T10:00:00Z", "Ace of Spades", 20, 5)
	f.record(t, 2, "The Corrupted", 3, "2024-06-02T10:00:00Z", "Gjallarhorn", 4, 0)
	f.record(t, 3, "Altars of Reflection", 3, "2024-06-03T10:00:00Z", "Fatebringer", 8, 8)

	resp, err := f.svc.Query(context.Background(), StatsQuery{CharacterID: bngCharacterID, Count: 2})
	require.NoError(t, err)

	var instances []string
	for _, s := range resp.Stats {
		instances = append(instances, s.InstanceID)
	}
	if diff := cmp.Diff([]string{"3", "2", "2"}, instances); diff != "" {
		t.Errorf("instances mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Loaded 3 weapon stats from 2 activities.", resp.Message)
	assert.Equal(t, 2, resp.FiltersUsed.Count)
	assert.False(t, resp.FiltersUsed.Refreshed)
	assert.Equal(t, time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC), resp.Timestamp)

	require.Len(t, resp.Weapons, 3)
	assert.Equal(t, "Ace of Spades", resp.Weapons[0].WeaponName)
	assert.Equal(t, 20, resp.Weapons[0].Kills)
	assert.Equal(t, 25.0, resp.Weapons[0].PrecisionKillsPercent)
}

func TestQueryFilters(t *testing.T) {
	f := newFixture(t, nil)
	f.record(t, 1, "The Corrupted", 3, "2024-06-01T10:00:00Z", "Ace of Spades", 10, 5)
	f.record(t, 2, "Trials of Osiris", 84, "2024-06-02T10:00:00Z", "Fatebringer", 3, 3)
	ctx := context.Background()

	byName, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, ActivityName: "vault"})
	require.NoError(t, err)
	assert.Empty(t, byName.Stats)

	byName, err = f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, ActivityName: "corrupt"})
	require.NoError(t, err)
	require.Len(t, byName.Stats, 1)
	assert.Equal(t, "The Corrupted", byName.Stats[0].ActivityName)

	// mode wins over activity name
	byMode, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Mode: intPtr(84), ActivityName: "corrupt"})
	require.NoError(t, err)
	require.Len(t, byMode.Stats, 1)
	assert.Equal(t, "Trials of Osiris", byMode.Stats[0].ModeLabel)
	assert.Empty(t, byMode.FiltersUsed.ActivityName)
	assert.Equal(t, "Trials of Osiris", byMode.FiltersUsed.ModeLabel)

	big, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Count: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxCount, big.FiltersUsed.Count)
}

func TestQueryErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Query(ctx, StatsQuery{})
	assert.ErrorIs(t, err, ErrCharacterRequired)

	_, err = f.svc.Query(ctx, StatsQuery{CharacterID: 42})
	assert.ErrorIs(t, err, ErrCharacterNotFound)

	empty, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID})
	require.NoError(t, err)
	assert.Equal(t, "No stats found for the selected filters.", empty.Message)
	assert.NotNil(t, empty.Weapons)
}

func TestRecordStatKeepsRequestedMode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.record(t, 1, "Trials of Osiris", 84, "2024-06-01T10:00:00Z", "Ace of Spades", 10, 5)

	stored, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Mode: intPtr(84)})
	require.NoError(t, err)
	require.Len(t, stored.Stats, 1)
	act, err := f.repo.GetActivityByBungieID(ctx, int64(len("Trials of Osiris"))*1000)
	require.NoError(t, err)
	require.NotNil(t, act)

	// an all-modes load of the same instance carries the report's own mode
	again := &Stat{
		InstanceID:     1,
		ActivityID:     act.ID,
		CharacterID:    f.characterID,
		WeaponID:       f.weapons["Ace of Spades"],
		Mode:           5,
		Period:         "2024-06-01T10:00:00Z",
		Kills:          11,
		PrecisionKills: 5,
		WeaponName:     "Ace of Spades",
		ActivityName:   "Trials of Osiris",
		CharacterClass: "HUNTER",
		ReportMode:     true,
	}
	saved, err := f.svc.RecordStat(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 84, saved.Mode)

	stored, err = f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Mode: intPtr(84)})
	require.NoError(t, err)
	require.Len(t, stored.Stats, 1)
	assert.Equal(t, 11, stored.Stats[0].Kills)

	// a requested mode refiles the row
	again.Mode = 5
	again.ReportMode = false
	saved, err = f.svc.RecordStat(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Mode)
}

type fakeRefresher struct {
	f     *fixture
	t     *testing.T
	calls []int
	err   error
}

func (r *fakeRefresher) RefreshStats(_ context.Context, bungieCharacterID int64, mode, count int) error {
	r.calls = append(r.calls, mode)
	if r.err != nil {
		return r.err
	}
	r.f.record(r.t, 9, "Vault of Glass", 4, "2024-06-03T10:00:00Z", "Fatebringer", 12, 6)
	return nil
}

func TestQueryRefresh(t *testing.T) {
	f := newFixture(t, nil)
	refresher := &fakeRefresher{f: f, t: t}
	f.svc.SetRefresher(refresher)
	ctx := context.Background()

	// nothing stored: loads from bungie
	resp, err := f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Mode: intPtr(4)})
	require.NoError(t, err)
	assert.True(t, resp.FiltersUsed.Refreshed)
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, []int{4}, refresher.calls)

	// stored rows are served without refresh
	resp, err = f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Mode: intPtr(4)})
	require.NoError(t, err)
	assert.False(t, resp.FiltersUsed.Refreshed)
	assert.Len(t, refresher.calls, 1)

	// explicit refresh without a mode loads every mode
	_, err = f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 0}, refresher.calls)

	refresher.err = errors.New("bungie down")
	_, err = f.svc.Query(ctx, StatsQuery{CharacterID: bngCharacterID, Refresh: true})
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.record(t, 1, "The Corrupted", 3, "2024-06-01T10:00:00Z", "Ace of Spades", 10, 5)

	r := chi.NewRouter()
	r.Route("/d2", NewHandler(f.svc).Register)

	get := func(target string) (*httptest.ResponseRecorder, map[string]any) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec, body
	}

	rec, body := get("/d2/stats?character_id=2305843009301648414&mode=strike")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Len(t, data["stats"], 1)
	assert.Contains(t, data, "timestamp")
	assert.EqualValues(t, 3, data["filters_used"].(map[string]any)["mode"])

	rec, body = get("/d2/stats")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "character_id is required", body["message"])

	rec, _ = get("/d2/stats?character_id=2305843009301648414&mode=gambit")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get("/d2/stats?character_id=2305843009301648414&count=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get("/d2/stats?character_id=1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = get("/d2/modes")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 9)
}
