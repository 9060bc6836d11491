package manifest

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/logging"
	"github.com/d2sandbox/tracker/internal/storage"
)

const (
	gjallarhorn uint32 = 1363886209
	rpmStat     uint32 = 4284893193
)

// buildContent writes a minimal manifest content database to path
func buildContent(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	tables := map[string]map[uint32]any{
		TableInventoryItem: {
			gjallarhorn: map[string]any{
				"hash":                       gjallarhorn,
				"displayProperties":          map[string]any{"name": "Gjallarhorn"},
				"itemType":                   ItemTypeWeapon,
				"itemTypeDisplayName":        "Rocket Launcher",
				"itemTypeAndTierDisplayName": "Exotic Rocket Launcher",
				"stats": map[string]any{"stats": map[string]any{
					"4284893193": map[string]any{"statHash": rpmStat, "value": 15},
				}},
			},
		},
	}

	for table, rows := range tables {
		_, err := db.Exec("CREATE TABLE " + table + " (id INTEGER PRIMARY KEY NOT NULL, json BLOB)")
		require.NoError(t, err)
		for hash, def := range rows {
			raw, err := json.Marshal(def)
			require.NoError(t, err)
			_, err = db.Exec("INSERT INTO "+table+" (id, json) VALUES (?, ?)", SignedID(hash), raw)
			require.NoError(t, err)
		}
	}
}

func TestSignedID(t *testing.T) {
	assert.Equal(t, int64(1363886209), SignedID(1363886209))
	assert.Equal(t, int64(-846692857), SignedID(3448274439))
}

func TestReaderLookups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	buildContent(t, path)

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	item, err := r.Item(ctx, gjallarhorn)
	require.NoError(t, err)
	assert.Equal(t, "Gjallarhorn", item.DisplayProperties.Name)
	rpm, ok := item.Stat(rpmStat)
	assert.True(t, ok)
	assert.Equal(t, 15, rpm)

	// memoised copy is returned on the second call
	again, err := r.Item(ctx, gjallarhorn)
	require.NoError(t, err)
	assert.Same(t, item, again)

	_, err = r.Item(ctx, 42)
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

func TestStatic(t *testing.T) {
	s := &Static{Items: map[uint32]*InventoryItem{1: {Hash: 1}}}
	item, err := s.Item(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), item.Hash)

	_, err = s.Activity(context.Background(), 1)
	assert.ErrorIs(t, err, ErrDefinitionNotFound)
}

type fakeSource struct {
	version   string
	archive   []byte
	downloads int
}

func (f *fakeSource) GetManifest(context.Context) (*bungie.ManifestInfo, error) {
	return &bungie.ManifestInfo{
		Version:                 f.version,
		MobileWorldContentPaths: map[string]string{"en": "/common/world_sql_content.content"},
	}, nil
}

func (f *fakeSource) Download(_ context.Context, path string) (io.ReadCloser, error) {
	if path != "/common/world_sql_content.content" {
		return nil, errors.New("unexpected path " + path)
	}
	f.downloads++
	return io.NopCloser(bytes.NewReader(f.archive)), nil
}

func zipOf(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSyncerDownloadsOnceAndCaches(t *testing.T) {
	content := filepath.Join(t.TempDir(), "world.content")
	buildContent(t, content)
	raw, err := os.ReadFile(content)
	require.NoError(t, err)

	source := &fakeSource{version: "228420.24.11.14", archive: zipOf(t, "world_sql_content.content", raw)}
	cache := storage.NewLocalStore(t.TempDir())
	dir := t.TempDir()
	ctx := context.Background()

	s := NewSyncer(source, cache, dir, logging.Discard())
	version, updated, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, "228420.24.11.14", version)
	assert.True(t, updated)
	assert.Equal(t, 1, source.downloads)
	assert.Equal(t, "228420.24.11.14", s.LocalVersion())

	_, updated, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.Equal(t, 1, source.downloads)

	// a fresh instance sharing the cache never hits bungie
	other := NewSyncer(source, cache, t.TempDir(), logging.Discard())
	_, updated, err = other.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 1, source.downloads)

	r, err := OpenReader(other.ContentPath())
	require.NoError(t, err)
	defer r.Close()
	item, err := r.Item(ctx, gjallarhorn)
	require.NoError(t, err)
	assert.Equal(t, "Gjallarhorn", item.DisplayProperties.Name)
}

// racingStore reports the archive as missing on Get, then as present once
// the download finishes, like a second instance uploading it meanwhile
type racingStore struct {
	*storage.LocalStore
	puts int
}

func (s *racingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrNotExist
}

func (s *racingStore) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func (s *racingStore) Put(ctx context.Context, key string, r io.Reader) error {
	s.puts++
	return s.LocalStore.Put(ctx, key, r)
}

func TestSyncerSkipsUploadWhenCached(t *testing.T) {
	content := filepath.Join(t.TempDir(), "world.content")
	buildContent(t, content)
	raw, err := os.ReadFile(content)
	require.NoError(t, err)

	source := &fakeSource{version: "v2", archive: zipOf(t, "world_sql_content.content", raw)}
	store := &racingStore{LocalStore: storage.NewLocalStore(t.TempDir())}
	s := NewSyncer(source, store, t.TempDir(), logging.Discard())

	_, updated, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 1, source.downloads)
	assert.Equal(t, 0, store.puts)
}

func TestSyncerRejectsEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, zip.NewWriter(&buf).Close())

	source := &fakeSource{version: "v1", archive: buf.Bytes()}
	s := NewSyncer(source, nil, t.TempDir(), logging.Discard())
	_, _, err := s.Sync(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "", s.LocalVersion())
}
