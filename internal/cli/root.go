package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/config"
	"github.com/mgpai22/subdeck/internal/logging"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subdeck",
	Short: "Subtitle timeline editor and renderer for short videos",
	Long: `Subdeck edits timed subtitle transcripts and burns them into videos.

Transcripts use a bracketed timecode format:

  [00:00-00:04]
  Hello world

SRT, WebVTT and SSA/ASS files can be imported and exported. Rendering and
frame extraction use ffmpeg, which is located or downloaded automatically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		load := config.Load
		if configPath != "" {
			load = func() (*config.Config, error) { return config.LoadFile(configPath) }
		}
		loaded, err := load()
		if err != nil {
			return err
		}
		cfg = loaded

		if verbose {
			logger = logging.NewLogger(true)
			return nil
		}
		logger, err = logging.NewFromConfig(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default $SUBDECK_CONFIG or ./subdeck.yaml)")
}
