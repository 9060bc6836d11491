package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/internal/ingest"
)

var (
	loadPlatform     string
	loadModes        []string
	loadCount        int
	loadFirstOnly    bool
	loadParticipants bool
	loadSkipStats    bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load players and activity stats from Bungie",
}

var loadPlayersCmd = &cobra.Command{
	Use:   "players NAME#CODE... | DESTINY_ID:PLATFORM...",
	Short: "Register players and load the recent activities of their characters",
	Long: `Registers every given player, then loads the activity history of their
characters for each requested mode.

Players are given by Bungie Name (Guardian#1234, searched on --platform) or
by membership id and platform (4611686018467284386:3).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoadPlayers,
}

var loadStatsCmd = &cobra.Command{
	Use:   "stats CHARACTER_ID",
	Short: "Load the recent activities of one tracked character",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoadStats,
}

var loadFileCmd = &cobra.Command{
	Use:   "file PATH",
	Short: "Run a bulk load described by a JSON file (- reads stdin)",
	Long: `Reads a bulk load request, the same body POST /d2/admin/load accepts:

  {"names": ["Guardian#1234"], "platform": 3, "members": [{"destiny_id": 1, "platform": 2}],
   "modes": [4, 84], "count": 5, "first_character_only": true}`,
	Args: cobra.ExactArgs(1),
	RunE: runLoadFile,
}

func init() {
	for _, c := range []*cobra.Command{loadPlayersCmd, loadStatsCmd} {
		c.Flags().StringSliceVar(&loadModes, "mode", nil, "Activity modes by number or label (default all)")
		c.Flags().IntVar(&loadCount, "count", 0, "Activities per mode (default from config)")
	}
	loadPlayersCmd.Flags().StringVar(&loadPlatform, "platform", "all", "Platform to search Bungie Names on")
	loadPlayersCmd.Flags().BoolVar(&loadFirstOnly, "first-character-only", false, "Only load the most recently played character")
	loadPlayersCmd.Flags().BoolVar(&loadSkipStats, "skip-stats", false, "Register players without loading activities")
	loadCmd.PersistentFlags().BoolVar(&loadParticipants, "participants", false, "Also record the other players of each activity")

	loadCmd.AddCommand(loadPlayersCmd)
	loadCmd.AddCommand(loadStatsCmd)
	loadCmd.AddCommand(loadFileCmd)
}

func runLoadPlayers(cmd *cobra.Command, args []string) error {
	platform := destiny.PlatformAll
	if loadPlatform != "all" {
		p, err := destiny.ParsePlatform(loadPlatform)
		if err != nil {
			return err
		}
		platform = p
	}
	modes, err := parseModes(loadModes)
	if err != nil {
		return err
	}

	req := ingest.BulkRequest{
		Platform:           platform,
		Modes:              modes,
		Count:              countOrDefault(loadCount),
		FirstCharacterOnly: loadFirstOnly,
	}
	if loadSkipStats {
		req.Modes = nil
		req.Count = 0
	}
	for _, arg := range args {
		if m, ok, err := parseMember(arg); err != nil {
			return err
		} else if ok {
			req.Members = append(req.Members, m)
		} else {
			req.Names = append(req.Names, arg)
		}
	}

	if loadSkipStats {
		return registerOnly(cmd, req)
	}
	return runBulk(cmd, req)
}

func runLoadStats(cmd *cobra.Command, args []string) error {
	characterID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid character id %q", args[0])
	}
	modes, err := parseModes(loadModes)
	if err != nil {
		return err
	}
	if len(modes) == 0 {
		for _, m := range destiny.ActivityModes() {
			modes = append(modes, m.Value)
		}
	}

	ctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(ctx, loadParticipants)
	if err != nil {
		return err
	}
	defer a.Close()

	total := &ingest.Summary{}
	for _, mode := range modes {
		s, err := a.loader.LoadActivityStats(ctx, characterID, mode, countOrDefault(loadCount))
		if err != nil {
			return fmt.Errorf("mode %s: %w", destiny.ModeLabel(mode), err)
		}
		total.RunID = s.RunID
		total.Add(s)
	}
	return printSummary(cmd.OutOrStdout(), total)
}

func runLoadFile(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var req ingest.BulkRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	return runBulk(cmd, req)
}

func runBulk(cmd *cobra.Command, req ingest.BulkRequest) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(ctx, loadParticipants)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.loader.LoadBulk(ctx, req)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), summary)
}

// registerOnly loads players and characters without any activity history
func registerOnly(cmd *cobra.Command, req ingest.BulkRequest) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	total := &ingest.Summary{}
	for _, raw := range req.Names {
		name, err := bungie.ParseBungieName(raw)
		if err != nil {
			return err
		}
		if _, err := a.loader.RegisterPlayer(ctx, name, req.Platform); err != nil {
			return fmt.Errorf("%s: %w", raw, err)
		}
		total.Players++
	}
	for _, m := range req.Members {
		_, s, err := a.loader.RegisterMember(ctx, m.DestinyID, m.Platform)
		if err != nil {
			return fmt.Errorf("%d: %w", m.DestinyID, err)
		}
		total.RunID = s.RunID
		total.Add(s)
	}
	return printSummary(cmd.OutOrStdout(), total)
}

// parseMember reads DESTINY_ID:PLATFORM. ok is false for anything that is
// not of that form, e.g. a Bungie Name.
func parseMember(arg string) (ingest.Member, bool, error) {
	id, platform, found := strings.Cut(arg, ":")
	if !found {
		return ingest.Member{}, false, nil
	}
	destinyID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ingest.Member{}, false, nil
	}
	p, err := destiny.ParsePlatform(platform)
	if err != nil {
		return ingest.Member{}, false, err
	}
	return ingest.Member{DestinyID: destinyID, Platform: p}, true, nil
}

func parseModes(values []string) ([]int, error) {
	var modes []int
	for _, v := range values {
		m, err := destiny.ParseActivityMode(v)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m.Value)
	}
	return modes, nil
}

func countOrDefault(n int) int {
	if n > 0 {
		return n
	}
	return cfg.Ingest.Count
}

func printSummary(w io.Writer, s *ingest.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
