package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/d2sandbox/tracker/internal/manifest"
	"github.com/d2sandbox/tracker/internal/storage"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the local Destiny manifest",
}

var manifestSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download the current manifest when the local copy is out of date",
	Long: `Compares the published manifest version with the local one and, when they
differ, downloads the content archive and extracts it into the manifest dir.

Archives are cached in S3 when D2_MANIFEST_BUCKET is set, otherwise under
<manifest dir>/archives.`,
	Args: cobra.NoArgs,
	RunE: runManifestSync,
}

var manifestVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of the local manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		version := manifest.NewSyncer(nil, nil, cfg.Manifest.Dir, logger).LocalVersion()
		if version == "" {
			version = "none"
		}
		fmt.Fprintln(cmd.OutOrStdout(), version)
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestSyncCmd)
	manifestCmd.AddCommand(manifestVersionCmd)
}

func runManifestSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newBungieClient()
	if err != nil {
		return err
	}
	store, err := archiveStore(ctx)
	if err != nil {
		return err
	}

	syncer := manifest.NewSyncer(client, store, cfg.Manifest.Dir, logger)
	version, updated, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}

	state := "already current"
	if updated {
		state = "updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "manifest %s (%s)\n", version, state)
	return nil
}

func archiveStore(ctx context.Context) (storage.Store, error) {
	if cfg.Manifest.Bucket == "" {
		return storage.NewLocalStore(filepath.Join(cfg.Manifest.Dir, "archives")), nil
	}
	logger.Infof("caching manifest archives in s3 bucket %s (region %s)", cfg.Manifest.Bucket, cfg.Manifest.Region)
	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Bucket:   cfg.Manifest.Bucket,
		Prefix:   cfg.Manifest.Prefix,
		Region:   cfg.Manifest.Region,
		Endpoint: cfg.Manifest.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
