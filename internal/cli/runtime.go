package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/ffmpeg"
	"github.com/mgpai22/subdeck/internal/subtitle"
	"github.com/mgpai22/subdeck/internal/timecode"
	"github.com/mgpai22/subdeck/internal/video"
)

// accepts plain seconds ("12.5") or a MM:SS timecode ("01:05")
func parseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return timecode.Parse(s)
	}
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: use seconds or MM:SS", s)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid time %q: must not be negative", s)
	}
	return seconds, nil
}

func timeFlag(cmd *cobra.Command, name string) (float64, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return 0, fmt.Errorf("--%s is required", name)
	}
	t, err := parseTime(raw)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

// opens any supported transcript; strict mode applies to bracketed text only
func openTimeline(path string, strict bool) (*subtitle.Timeline, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	format, err := subtitle.GetFormatFromExtension(path)
	if err != nil {
		return nil, err
	}
	if !strict || format != subtitle.FormatText {
		return subtitle.Open(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return subtitle.ParseTextStrict(string(data), path)
}

func newResolver() *ffmpeg.Resolver {
	return ffmpeg.NewResolver(ffmpeg.Options{
		FFmpegPath:    cfg.Media.FFmpegPath,
		FFprobePath:   cfg.Media.FFprobePath,
		AllowDownload: cfg.Media.AllowDownload,
	})
}

func newProcessor() *video.Processor {
	return video.NewProcessor(newResolver(), video.Options{
		TempDir:  cfg.Media.TempDir,
		FontFile: cfg.Media.FontFile,
		Preset:   cfg.Media.Preset,
		CRF:      cfg.Media.CRF,
	}, logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writes to the --output file when set, otherwise to the command's stdout
func withOutput(cmd *cobra.Command, fn func(w io.Writer) error) error {
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		return fn(cmd.OutOrStdout())
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// renames src to dst, copying when they are on different filesystems
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func printViolations(w io.Writer, report subtitle.Report) {
	for _, id := range report.InvalidChunkIDs {
		for _, v := range report.ErrorsByChunkID[id] {
			fmt.Fprintf(w, "  %s: [%s] %s\n", id, v.Code, v.Message)
		}
	}
}
