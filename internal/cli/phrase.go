package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/creative"
	"github.com/mgpai22/subdeck/internal/upload"
)

var phraseCmd = &cobra.Command{
	Use:   "phrase [video_file]",
	Short: "Suggest on-screen text for part of a video",
	Long: `Suggest a short line of on-screen text, or a call-to-action, for the
range --start to --end of a video. The frame at the middle of the range is
analyzed and the phrase is written for the scene it shows.

Phrases come from built-in templates unless a provider is configured
(gemini, openai, anthropic or ollama). If analysis fails a neutral scene is
assumed; if the provider fails the templates are used.

Examples:
  subdeck phrase clip.mp4 --start 2 --end 6 --theme cta
  subdeck phrase clip.mp4 --start 00:10 --end 00:14 --style funny --context "free trial"
  subdeck phrase clip.mp4 --start 0 --end 5 --provider gemini --analyzer gemini --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPhrase,
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List phrase themes, styles and scene types",
	Args:  cobra.NoArgs,
	RunE:  runStyles,
}

func init() {
	rootCmd.AddCommand(phraseCmd, stylesCmd)

	phraseCmd.Flags().String("start", "", "Range start in seconds or MM:SS")
	phraseCmd.Flags().String("end", "", "Range end in seconds or MM:SS")
	phraseCmd.Flags().String("theme", "contextual", "Text theme (contextual, cta)")
	phraseCmd.Flags().String("style", "professional", "Writing style (professional, casual, funny, inspirational, technical)")
	phraseCmd.Flags().String("context", "", "Extra context for the phrase (max 500 characters)")
	phraseCmd.Flags().StringP("language", "l", "", "Language to write the phrase in")
	phraseCmd.Flags().String("provider", "", "Phrase provider (template, gemini, openai, anthropic, ollama)")
	phraseCmd.Flags().String("analyzer", "", "Frame analyzer (mock, gemini)")
	phraseCmd.Flags().String("model", "", "Model for the provider")
	phraseCmd.Flags().StringP("api-key", "k", "", "API key for the provider (or set GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
	phraseCmd.Flags().Bool("json", false, "Print the phrase with its scene and metadata as JSON")
}

// builds the phrase service from config, with flag overrides applied by the caller
func newPhraseService(ctx context.Context, apiKey string) (*creative.Service, error) {
	provider := creative.Provider(cfg.Creative.Provider)
	if apiKey == "" {
		apiKey = cfg.Creative.APIKey(string(provider))
	}

	opts := creative.Options{Model: cfg.Creative.Model}
	if provider == creative.ProviderOllama {
		opts.BaseURL = cfg.Creative.OllamaURL
	}

	generator, err := creative.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create phrase generator: %w", err)
	}

	analyzerKey := cfg.Creative.GeminiAPIKey
	if provider == creative.ProviderGemini && apiKey != "" {
		analyzerKey = apiKey
	}
	analyzer, err := creative.NewAnalyzer(ctx, cfg.Creative.Analyzer, analyzerKey, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create frame analyzer: %w", err)
	}

	return creative.NewService(
		upload.NewIntake(cfg.Media.TempDir),
		newProcessor(),
		analyzer,
		generator,
		logger,
	), nil
}

func runPhrase(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	start, err := timeFlag(cmd, "start")
	if err != nil {
		return err
	}
	end, err := timeFlag(cmd, "end")
	if err != nil {
		return err
	}

	theme, _ := cmd.Flags().GetString("theme")
	style, _ := cmd.Flags().GetString("style")
	phraseContext, _ := cmd.Flags().GetString("context")
	language, _ := cmd.Flags().GetString("language")
	apiKey, _ := cmd.Flags().GetString("api-key")
	asJSON, _ := cmd.Flags().GetBool("json")

	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Creative.Provider = v
	}
	if v, _ := cmd.Flags().GetString("analyzer"); v != "" {
		cfg.Creative.Analyzer = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Creative.Model = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := newPhraseService(ctx, apiKey)
	if err != nil {
		return err
	}

	phrase, err := svc.Generate(ctx, creative.PhraseRequest{
		VideoPath: args[0],
		StartTime: start,
		EndTime:   end,
		Theme:     creative.Theme(theme),
		Tone:      creative.Tone(style),
		Context:   phraseContext,
		Language:  language,
	})
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), phrase)
	}
	fmt.Fprintln(cmd.OutOrStdout(), phrase.Text)
	return nil
}

func runStyles(cmd *cobra.Command, args []string) error {
	c := creative.Catalog()
	out := cmd.OutOrStdout()

	sections := []struct {
		title string
		opts  []creative.Option
	}{
		{"Text themes", c.TextThemes},
		{"Styles", c.Styles},
		{"Scene types", c.SceneTypes},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s:\n", s.title)
		for _, o := range s.opts {
			fmt.Fprintf(out, "  %-14s %s\n", o.Name, o.Description)
		}
	}
	return nil
}
