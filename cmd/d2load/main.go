package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d2sandbox/tracker/internal/bungie"
	"github.com/d2sandbox/tracker/internal/config"
	"github.com/d2sandbox/tracker/internal/logging"
)

var (
	logLevel string
	timeout  time.Duration

	cfg    *config.Config
	logger *logrus.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "d2load",
	Short: "Load Destiny 2 players, activities and the manifest into the tracker",
	Long: `d2load feeds the tracker database from the Bungie API.

Available commands:
  load     - Register players and load their activity stats
  manifest - Download and inspect the Destiny manifest`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Operation timeout")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(manifestCmd)
}

// commandContext is cancelled on interrupt or after --timeout
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newBungieClient() (*bungie.Client, error) {
	client, err := bungie.NewClient(cfg.Bungie.APIKey,
		bungie.WithBaseURL(cfg.Bungie.BaseURL),
		bungie.WithTimeout(cfg.Bungie.Timeout),
		bungie.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("bungie client: %w (set D2_BUNGIE_APIKEY)", err)
	}
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
