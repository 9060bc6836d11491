package d2api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(srv.URL+"/d2/", WithLogger(logger))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

var sampleUser = map[string]any{
	"player_id":        1,
	"destiny_id":       4611686018467284386,
	"bng_username":     "Guardian#0001",
	"date_created":     "2020-11-10",
	"date_last_played": "2024-06-04",
	"platform":         "STEAM",
	"character_ids":    "['2305843009301648414']",
}

func TestFetchUserShapes(t *testing.T) {
	cases := map[string]any{
		"envelope": map[string]any{"success": true, "data": sampleUser},
		"bare":     sampleUser,
		"tuple":    []any{sampleUser, 200},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/d2/user/Guardian%230001", r.URL.EscapedPath())
				writeJSON(w, http.StatusOK, body)
			})

			user, err := c.FetchUser(context.Background(), "Guardian#0001")
			require.NoError(t, err)
			assert.Equal(t, "Guardian#0001", user.BungieUsername)
			assert.Equal(t, int64(4611686018467284386), user.DestinyID)
		})
	}
}

func TestFetchUserUnexpectedFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"name": "x"}})
	})

	_, err := c.FetchUser(context.Background(), "Guardian#0001")
	require.ErrorIs(t, err, ErrUnexpectedFormat)
	assert.Equal(t, "Failed to parse API response: Parsed data format is unexpected.", err.Error())
}

func TestFetchUserErrors(t *testing.T) {
	t.Run("server message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "user not found"})
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		require.Error(t, err)
		assert.Equal(t, "user not found (Status: 404)", err.Error())
		assert.True(t, IsNotFound(err))
	})

	t.Run("json without message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		assert.EqualError(t, err, "HTTP error! Status: 500")
		assert.False(t, IsNotFound(err))
	})

	t.Run("not json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		assert.EqualError(t, err, "Bad Gateway (Status: 502)")
	})

	t.Run("json null", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, nil)
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		assert.EqualError(t, err, "Service Unavailable (Status: 503)")
	})

	t.Run("json array", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusServiceUnavailable, []string{"maintenance"})
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		assert.EqualError(t, err, "HTTP error! Status: 503")
	})

	t.Run("legacy tuple", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []any{map[string]any{"message": "user not found"}, 404})
		})
		_, err := c.FetchUser(context.Background(), "Ghost#1234")
		assert.True(t, IsNotFound(err))
	})
}

func TestAddUser(t *testing.T) {
	var got addUserRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/d2/user", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": sampleUser})
	})

	require.NoError(t, c.AddUser(context.Background(), "Guardian#0001", 3))
	assert.Equal(t, addUserRequest{BungieUsername: "Guardian#0001", Platform: 3}, got)
}

func TestAddUserErrors(t *testing.T) {
	t.Run("server message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "no Destiny account found for that Bungie Name"})
		})
		err := c.AddUser(context.Background(), "Ghost#1234", 3)
		assert.EqualError(t, err, "no Destiny account found for that Bungie Name")
	})

	t.Run("json without message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]any{})
		})
		err := c.AddUser(context.Background(), "Ghost#1234", 3)
		assert.EqualError(t, err, "Failed to add user. Status: 409")
	})

	t.Run("not json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "oops", http.StatusInternalServerError)
		})
		err := c.AddUser(context.Background(), "Ghost#1234", 3)
		assert.EqualError(t, err, "Internal Server Error (Status: 500)")
	})
}

func TestFetchStatsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/d2/stats", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2305843009301648414", q.Get("character_id"))
		assert.Equal(t, "4", q.Get("mode"))
		assert.Empty(t, q.Get("activity_name"))
		assert.Equal(t, "10", q.Get("count"))
		assert.Equal(t, "true", q.Get("refresh"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"message": "Loaded 1 weapon stats from 1 activities.",
			"stats": []any{map[string]any{
				"instance_id":             "123",
				"weapon_name":             "Fatebringer",
				"kills":                   10,
				"precision_kills":         6,
				"precision_kills_percent": 60.0,
			}},
			"weapons": []any{},
		}})
	})

	stats, err := c.FetchStats(context.Background(), StatsFilter{
		CharacterID:  "2305843009301648414",
		Mode:         "4",
		ActivityName: "ignored",
		Count:        10,
		Refresh:      true,
	})
	require.NoError(t, err)
	require.Len(t, stats.Stats, 1)
	assert.Equal(t, "Fatebringer", stats.Stats[0].WeaponName)
	assert.Equal(t, 60.0, stats.Stats[0].PrecisionKillsPercent)
}

func TestFetchCharactersAndModes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/d2/characters/7":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{
				map[string]any{"bng_character_id": "2305843009301648414", "class": "HUNTER"},
			}})
		case "/d2/modes":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{
				map[string]any{"value": 4, "label": "Raid"},
			}})
		default:
			http.NotFound(w, r)
		}
	})

	chars, err := c.FetchCharacters(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, chars, 1)
	assert.Equal(t, "HUNTER", chars[0].Class)

	modes, err := c.Modes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Mode{{Value: 4, Label: "Raid"}}, modes)
}
