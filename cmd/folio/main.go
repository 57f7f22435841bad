package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/app"
	"github.com/ternarybob/folio/internal/common"
)

var (
	// Command-line flags
	configFiles    []string
	logLevel       string
	stagingBackend string

	// Global state, set up in PersistentPreRunE
	config      *common.Config
	logger      arbor.ILogger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "folio",
	Short:         "Read a Notion content database into a cached post model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() || cmd.Name() == "help" {
			return nil
		}
		return setup(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stagingBackend, "staging", "", "Staging backend: none, dir or badger (overrides config)")

	rootCmd.AddCommand(postsCmd, tagsCmd, postCmd, blocksCmd, buildCmd, likeCmd, versionCmd)
}

// setup runs the startup sequence: config, flag overrides, logger, banner, app
func setup(ctx context.Context) error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("folio.toml"); err == nil {
			configFiles = append(configFiles, "folio.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}

	common.ApplyFlagOverrides(config, logLevel, stagingBackend)

	logger = common.InitLogger(config)
	common.PrintBanner(common.Version)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Str("staging", config.Staging.Backend).
		Msg("Configuration loaded")

	application, err = app.New(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if application != nil {
		if cerr := application.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close application")
		}
	}

	if err != nil {
		if logger != nil {
			logger.Error().Err(err).Msg("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
