package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/subtitle"
	"github.com/mgpai22/subdeck/internal/timecode"
)

var parseCmd = &cobra.Command{
	Use:   "parse [transcript]",
	Short: "Parse a transcript into timeline JSON",
	Long: `Parse a transcript and print the resulting timeline as JSON.

Bracketed .txt transcripts are parsed leniently: lines that do not fit the
format are skipped. Use --strict to report them as errors instead.
SRT, VTT and ASS files are imported by extension.

Examples:
  subdeck parse transcript.txt
  subdeck parse transcript.txt --strict
  subdeck parse movie.srt -o timeline.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var validateCmd = &cobra.Command{
	Use:   "validate [transcript]",
	Short: "Check a transcript against a video duration",
	Long: `Validate every entry of a transcript: entries must start before the
video ends, end after they start, and must not overlap one another.

The video duration comes from --duration, or is probed from --video.
The command fails when any entry is invalid.

Examples:
  subdeck validate transcript.txt --duration 30
  subdeck validate transcript.txt --video clip.mp4
  subdeck validate transcript.txt --duration 00:45 --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var exportCmd = &cobra.Command{
	Use:   "export [transcript]",
	Short: "Convert a transcript to another subtitle format",
	Long: `Convert a transcript between the bracketed text format, SRT, WebVTT
and SSA/ASS. The output defaults to the input name with the new extension.

Examples:
  subdeck export transcript.txt --format srt
  subdeck export movie.vtt -f txt -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var queryCmd = &cobra.Command{
	Use:   "query [transcript]",
	Short: "Find the entries shown at a time or within a range",
	Long: `Print the entry shown at --at, or every entry intersecting the
inclusive range --from to --to. Times are seconds or MM:SS.

Examples:
  subdeck query transcript.txt --at 00:05
  subdeck query transcript.txt --from 3 --to 6`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var infoCmd = &cobra.Command{
	Use:   "info [transcript]",
	Short: "Summarize a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(parseCmd, validateCmd, exportCmd, queryCmd, infoCmd)

	parseCmd.Flags().Bool("strict", false, "Fail on lines that are not part of an entry")

	validateCmd.Flags().StringP("duration", "d", "", "Video duration in seconds or MM:SS")
	validateCmd.Flags().String("video", "", "Video file to probe for its duration")
	validateCmd.Flags().Bool("strict", false, "Also fail on lines that are not part of an entry")

	exportCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (txt, srt, vtt, ass)")

	queryCmd.Flags().String("at", "", "Time to look up")
	queryCmd.Flags().String("from", "", "Range start")
	queryCmd.Flags().String("to", "", "Range end")
}

func runParse(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")

	tl, err := openTimeline(args[0], strict)
	if err != nil {
		return err
	}

	logger.Debugw("Parsed transcript", "input", args[0], "entries", tl.Len())

	return withOutput(cmd, func(w io.Writer) error {
		return writeJSON(w, tl)
	})
}

func runValidate(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	videoPath, _ := cmd.Flags().GetString("video")
	rawDuration, _ := cmd.Flags().GetString("duration")

	tl, err := openTimeline(args[0], strict)
	if err != nil {
		return err
	}

	var duration float64
	switch {
	case rawDuration != "":
		if duration, err = parseTime(rawDuration); err != nil {
			return fmt.Errorf("--duration: %w", err)
		}
	case videoPath != "":
		if duration, err = newProcessor().Duration(context.Background(), videoPath); err != nil {
			return fmt.Errorf("failed to get video duration: %w", err)
		}
	default:
		return fmt.Errorf("either --duration or --video is required")
	}

	report := subtitle.ValidateAll(tl, duration)
	out := cmd.OutOrStdout()
	if report.IsValid {
		fmt.Fprintf(out, "All %d entries are valid for a %s video\n", tl.Len(), timecode.FormatClock(duration))
		return nil
	}

	fmt.Fprintf(out, "%d of %d entries are invalid:\n", len(report.InvalidChunkIDs), tl.Len())
	printViolations(out, report)
	return report.Err()
}

func runExport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return fmt.Errorf("unsupported format %q: use txt, srt, vtt, or ass", formatStr)
	}

	tl, err := openTimeline(inputPath, false)
	if err != nil {
		return err
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = baseName + subtitle.GetExtensionForFormat(format)
		if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
			return fmt.Errorf("output would overwrite %s: pass --output", inputPath)
		}
		cmd.Flags().Set("output", outputPath) //nolint:errcheck
	}

	if err := withOutput(cmd, func(w io.Writer) error {
		return subtitle.Export(tl, format, w)
	}); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", tl.Len(), absOutput)
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	tl, err := openTimeline(args[0], false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if at, _ := cmd.Flags().GetString("at"); at != "" {
		t, err := parseTime(at)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		entry, ok := subtitle.EntryAt(tl, t)
		if !ok {
			fmt.Fprintf(out, "No entry at %s\n", timecode.FormatClock(t))
			return nil
		}
		printEntry(out, entry)
		return nil
	}

	start, err := timeFlag(cmd, "from")
	if err != nil {
		return fmt.Errorf("%w (or use --at)", err)
	}
	end, err := timeFlag(cmd, "to")
	if err != nil {
		return err
	}
	if end < start {
		return fmt.Errorf("--to must not be before --from")
	}

	entries := subtitle.EntriesInRange(tl, start, end)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries in range")
		return nil
	}
	for _, e := range entries {
		printEntry(out, e)
	}
	return nil
}

func printEntry(w io.Writer, e subtitle.Entry) {
	e.Refresh()
	fmt.Fprintf(w, "%s [%s-%s] %s\n", e.ID, e.StartTimeFormatted, e.EndTimeFormatted, e.Text)
}

func runInfo(cmd *cobra.Command, args []string) error {
	tl, err := openTimeline(args[0], false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source: %s\n", tl.Source)
	fmt.Fprintf(out, "  Entries: %d\n", tl.Len())
	fmt.Fprintf(out, "  Duration: %s\n", timecode.FormatClock(tl.TotalDuration))

	lang := subtitle.DetectLanguage(tl)
	if lang.Code != "" {
		reliability := "unreliable"
		if lang.Reliable {
			reliability = "reliable"
		}
		fmt.Fprintf(out, "  Language: %s (%s, %s)\n", lang.Name, lang.Code, reliability)
	}
	return nil
}
