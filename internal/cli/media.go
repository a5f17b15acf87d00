package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/subtitle"
	"github.com/mgpai22/subdeck/internal/timecode"
	"github.com/mgpai22/subdeck/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render [video_file] [transcript]",
	Short: "Burn a transcript into a video",
	Long: `Render a copy of the video with every transcript entry drawn on screen
between its start and end time, using each entry's size, color and position.

The video is re-encoded with libx264 and aac. With --validate the transcript
is checked against the probed video duration first and the render is refused
when any entry is invalid.

Examples:
  subdeck render clip.mp4 transcript.txt
  subdeck render clip.mp4 movie.srt -o clip_subtitled.mp4 --validate
  subdeck render clip.mp4 transcript.txt --preset slow --crf 18`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

var frameCmd = &cobra.Command{
	Use:   "frame [video_file]",
	Short: "Extract still frames from a video",
	Long: `Extract the frame at --at as a JPEG, or with --transcript one frame at
the midpoint of every entry. With --transcript, --output names a directory
and frames are written there as <entry id>.jpg.

Examples:
  subdeck frame clip.mp4 --at 00:03 -o thumb.jpg
  subdeck frame clip.mp4 --transcript transcript.txt --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runFrame,
}

var probeCmd = &cobra.Command{
	Use:   "probe [video_file]",
	Short: "Print video duration, resolution and codec",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(renderCmd, frameCmd, probeCmd)

	renderCmd.Flags().Bool("validate", false, "Refuse to render an invalid transcript")
	renderCmd.Flags().String("preset", "", "x264 preset (default from config: fast)")
	renderCmd.Flags().Int("crf", 0, "x264 constant rate factor (default from config: 23)")
	renderCmd.Flags().String("font", "", "Font file for subtitle text")

	frameCmd.Flags().String("at", "", "Time of the frame in seconds or MM:SS")
	frameCmd.Flags().String("transcript", "", "Extract one frame per entry of this transcript")
	frameCmd.Flags().Int("concurrency", 4, "Number of parallel extractions")
}

func runRender(cmd *cobra.Command, args []string) error {
	videoPath, transcriptPath := args[0], args[1]
	ctx := context.Background()

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", videoPath)
	}
	if !video.IsVideoFile(videoPath) {
		return fmt.Errorf("unsupported file type: %s (expected a video file)", filepath.Ext(videoPath))
	}

	tl, err := openTimeline(transcriptPath, false)
	if err != nil {
		return err
	}
	if tl.Len() == 0 {
		return fmt.Errorf("%s has no entries", transcriptPath)
	}

	validate, _ := cmd.Flags().GetBool("validate")
	outputPath, _ := cmd.Flags().GetString("output")
	if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
		cfg.Media.Preset = preset
	}
	if crf, _ := cmd.Flags().GetInt("crf"); crf > 0 {
		cfg.Media.CRF = crf
	}
	if font, _ := cmd.Flags().GetString("font"); font != "" {
		cfg.Media.FontFile = font
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
		outputPath = baseName + "_subtitled.mp4"
	}

	processor := newProcessor()

	if validate {
		duration, err := processor.Duration(ctx, videoPath)
		if err != nil {
			return fmt.Errorf("failed to get video duration: %w", err)
		}
		if report := subtitle.ValidateAll(tl, duration); !report.IsValid {
			printViolations(cmd.ErrOrStderr(), report)
			return report.Err()
		}
	}

	logger.Infow("Starting render",
		"input", videoPath,
		"transcript", transcriptPath,
		"output", outputPath,
		"entries", tl.Len(),
	)

	rendered, err := processor.Render(ctx, videoPath, video.CuesFromTimeline(tl))
	if err != nil {
		return err
	}
	if err := moveFile(rendered, outputPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Video rendered successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", tl.Len())
	return nil
}

func runFrame(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()
	out := cmd.OutOrStdout()

	transcriptPath, _ := cmd.Flags().GetString("transcript")
	outputPath, _ := cmd.Flags().GetString("output")
	processor := newProcessor()

	if transcriptPath == "" {
		at, err := timeFlag(cmd, "at")
		if err != nil {
			return fmt.Errorf("%w (or use --transcript)", err)
		}
		frame, err := processor.ExtractFrame(ctx, videoPath, at)
		if err != nil {
			return err
		}
		if outputPath != "" {
			if err := moveFile(frame, outputPath); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			frame = outputPath
		}
		fmt.Fprintf(out, "%s %s\n", timecode.FormatClock(at), frame)
		return nil
	}

	tl, err := openTimeline(transcriptPath, false)
	if err != nil {
		return err
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cues := video.CuesFromTimeline(tl)
	frames, err := video.ExtractFrames(ctx, processor, videoPath, video.MidpointTimes(cues), concurrency)
	if err != nil {
		return err
	}

	for _, f := range frames {
		path := f.Path
		if outputPath != "" {
			path = filepath.Join(outputPath, fmt.Sprintf("%s.jpg", tl.Entries[f.Index].ID))
			if err := moveFile(f.Path, path); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		fmt.Fprintf(out, "%s %s %s\n", tl.Entries[f.Index].ID, timecode.FormatClock(f.At), path)
	}
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	info, err := newProcessor().Probe(context.Background(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", info.Path)
	fmt.Fprintf(out, "  Duration: %s (%.3fs)\n", timecode.FormatClock(info.Seconds()), info.Seconds())
	if info.Width > 0 {
		fmt.Fprintf(out, "  Video: %s %dx%d @ %.2f fps\n", info.Codec, info.Width, info.Height, info.FrameRate)
	}
	fmt.Fprintf(out, "  Audio: %t\n", info.HasAudio)
	return nil
}
