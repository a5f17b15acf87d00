package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/server"
	"github.com/mgpai22/subdeck/internal/upload"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the rendering and phrase API:

  POST /save                 burn subtitles into an uploaded video
  POST /creativity/generate  suggest a phrase for a video range
  GET  /creativity/styles    list phrase themes and styles
  POST /timeline/parse       parse a transcript
  POST /timeline/validate    validate a timeline
  POST /timeline/export      convert a timeline to SRT, VTT or ASS
  GET  /health               liveness check

Examples:
  subdeck serve
  subdeck serve --port 9000 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Listen host (default from config: 127.0.0.1)")
	serveCmd.Flags().IntP("port", "p", 0, "Listen port (default from config: 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phrases, err := newPhraseService(ctx, "")
	if err != nil {
		return err
	}

	processor := newProcessor()
	srv := server.New(cfg.Server, server.Deps{
		Renderer: processor,
		Prober:   processor,
		Intake:   upload.NewIntake(cfg.Media.TempDir),
		Phrases:  phrases,
		Logger:   logger,
	})

	logger.Infow("Starting server",
		"addr", cfg.Server.Addr(),
		"provider", cfg.Creative.Provider,
		"analyzer", cfg.Creative.Analyzer,
	)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
