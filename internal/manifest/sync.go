package manifest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/storage"
)

const (
	contentFile = "manifest.content"
	versionFile = "manifest.version"
	language    = "en"
)

// Source is the part of the Bungie client the syncer needs
type Source interface {
	GetManifest(ctx context.Context) (*bungie.ManifestInfo, error)
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

// Syncer keeps a local copy of the manifest content database up to date.
// When a store is configured, archives are cached there by version.
type Syncer struct {
	source Source
	store  storage.Store
	dir    string
	logger logrus.FieldLogger
}

// NewSyncer creates a syncer writing into dir. store may be nil.
func NewSyncer(source Source, store storage.Store, dir string, logger logrus.FieldLogger) *Syncer {
	return &Syncer{source: source, store: store, dir: dir, logger: logger}
}

// ContentPath is where the extracted sqlite database lives
func (s *Syncer) ContentPath() string {
	return filepath.Join(s.dir, contentFile)
}

// LocalVersion returns the version of the extracted manifest, "" when none
func (s *Syncer) LocalVersion() string {
	data, err := os.ReadFile(filepath.Join(s.dir, versionFile))
	if err != nil {
		return ""
	}
	if _, err := os.Stat(s.ContentPath()); err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Sync downloads and extracts the current manifest if the local copy is stale
func (s *Syncer) Sync(ctx context.Context) (version string, updated bool, err error) {
	info, err := s.source.GetManifest(ctx)
	if err != nil {
		return "", false, fmt.Errorf("fetch manifest info: %w", err)
	}
	contentPath, ok := info.MobileWorldContentPaths[language]
	if !ok || contentPath == "" {
		return "", false, fmt.Errorf("manifest has no %q content path", language)
	}

	log := s.logger.WithField("version", info.Version)
	if s.LocalVersion() == info.Version {
		log.Debug("manifest is current")
		return info.Version, false, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create manifest dir: %w", err)
	}

	archive, err := os.CreateTemp(s.dir, "manifest-*.zip")
	if err != nil {
		return "", false, fmt.Errorf("create archive file: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	if err := s.fetchArchive(ctx, info.Version, contentPath, archive); err != nil {
		return "", false, err
	}

	if err := extract(archive.Name(), s.ContentPath()); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, versionFile), []byte(info.Version+"\n"), 0o644); err != nil {
		return "", false, fmt.Errorf("write manifest version: %w", err)
	}

	log.Info("manifest updated")
	return info.Version, true, nil
}

func archiveKey(version string) string {
	return "manifest/" + strings.NewReplacer("/", "_", "\\", "_").Replace(version) + ".zip"
}

// fetchArchive fills dst from the store cache, falling back to Bungie and
// populating the cache afterwards.
func (s *Syncer) fetchArchive(ctx context.Context, version, contentPath string, dst *os.File) error {
	key := archiveKey(version)

	if s.store != nil {
		rc, err := s.store.Get(ctx, key)
		switch {
		case err == nil:
			defer rc.Close()
			if _, err := io.Copy(dst, rc); err != nil {
				return fmt.Errorf("copy cached manifest: %w", err)
			}
			s.logger.WithField("key", key).Info("manifest archive served from cache")
			return nil
		case errors.Is(err, storage.ErrNotExist):
		default:
			s.logger.WithError(err).Warn("manifest cache unavailable, downloading from bungie")
		}
	}

	body, err := s.source.Download(ctx, contentPath)
	if err != nil {
		return fmt.Errorf("download manifest: %w", err)
	}
	defer body.Close()
	if _, err := io.Copy(dst, body); err != nil {
		return fmt.Errorf("write manifest archive: %w", err)
	}

	if s.store != nil {
		// another instance may have cached this version while we downloaded
		if cached, err := s.store.Exists(ctx, key); err == nil && cached {
			return nil
		}
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind manifest archive: %w", err)
		}
		if err := s.store.Put(ctx, key, dst); err != nil {
			s.logger.WithError(err).Warn("failed to cache manifest archive")
		}
	}
	return nil
}

// extract writes the single database inside the archive to dst
func extract(archivePath, dst string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open manifest archive: %w", err)
	}
	defer zr.Close()

	var entry *zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			entry = f
			break
		}
	}
	if entry == nil {
		return errors.New("manifest archive is empty")
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open %s in archive: %w", entry.Name, err)
	}
	defer src.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("extract manifest: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, dst)
}
