package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/subdeck/internal/logging"
	"github.com/mgpai22/subdeck/internal/subtitle"
	"github.com/mgpai22/subdeck/internal/timecode"
)

var (
	// ErrExtractionFailed wraps every frame extraction failure.
	ErrExtractionFailed = errors.New("frame extraction failed")
	// ErrRenderFailed wraps every burn-in failure.
	ErrRenderFailed = errors.New("render failed")
)

// Cue is one subtitle to burn into the video.
type Cue struct {
	Text      string           `json:"text"`
	StartTime float64          `json:"startTime"`
	EndTime   float64          `json:"endTime"`
	Styling   subtitle.Styling `json:"styling"`
}

// converts timeline entries to cues, in timeline order
func CuesFromTimeline(tl *subtitle.Timeline) []Cue {
	if tl == nil {
		return nil
	}
	cues := make([]Cue, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		cues = append(cues, Cue{
			Text:      e.Text,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Styling:   e.Styling,
		})
	}
	return cues
}

// Renderer extracts still frames and burns subtitles into videos.
type Renderer interface {
	// writes a JPEG of the frame at the given second and returns its path
	ExtractFrame(ctx context.Context, videoPath string, at float64) (string, error)

	// writes a re-encoded copy of the video with the cues drawn on it
	Render(ctx context.Context, videoPath string, cues []Cue) (string, error)
}

// BinaryLocator resolves the ffmpeg and ffprobe executables.
type BinaryLocator interface {
	FFmpegPath(ctx context.Context) (string, error)
	FFprobePath(ctx context.Context) (string, error)
}

// holds encoding and working directory settings
type Options struct {
	TempDir  string
	FontFile string // empty means the first installed candidate font
	Preset   string
	CRF      int
}

// returns the encoding defaults: x264 preset fast, crf 23
func DefaultOptions() Options {
	return Options{
		TempDir: filepath.Join(os.TempDir(), "subdeck"),
		Preset:  "fast",
		CRF:     23,
	}
}

// default Renderer implementation using ffmpeg
type Processor struct {
	bins   BinaryLocator
	opts   Options
	logger *logging.Logger
}

func NewProcessor(bins BinaryLocator, opts Options, logger *logging.Logger) *Processor {
	def := DefaultOptions()
	if opts.TempDir == "" {
		opts.TempDir = def.TempDir
	}
	if opts.Preset == "" {
		opts.Preset = def.Preset
	}
	if opts.CRF == 0 {
		opts.CRF = def.CRF
	}
	if opts.FontFile == "" {
		opts.FontFile = FindFontFile()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Processor{bins: bins, opts: opts, logger: logger}
}

// extracts a single frame at the given time
func (p *Processor) ExtractFrame(ctx context.Context, videoPath string, at float64) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("%w: video file not found: %s", ErrExtractionFailed, videoPath)
	}
	if at < 0 {
		return "", fmt.Errorf("%w: negative timestamp %v", ErrExtractionFailed, at)
	}

	ffmpegPath, err := p.bins.FFmpegPath(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if err := os.MkdirAll(p.opts.TempDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create temp directory: %w", ErrExtractionFailed, err)
	}

	outputPath := filepath.Join(p.opts.TempDir, fmt.Sprintf("frame_%s.jpg", uuid.NewString()))

	stream := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": at}).
		Output(outputPath, ffmpeg.KwArgs{
			"vframes": 1,
			"q:v":     2,
		}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath)

	if err := run(ctx, stream); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if !nonEmpty(outputPath) {
		return "", fmt.Errorf("%w: no frame written at %s", ErrExtractionFailed, timecode.FormatClock(at))
	}

	p.logger.Debugw("Extracted frame", "video", videoPath, "at", timecode.FormatClock(at), "frame", outputPath)
	return outputPath, nil
}

// burns the cues into a re-encoded copy of the video
func (p *Processor) Render(ctx context.Context, videoPath string, cues []Cue) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("%w: video file not found: %s", ErrRenderFailed, videoPath)
	}

	ffmpegPath, err := p.bins.FFmpegPath(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if err := os.MkdirAll(p.opts.TempDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create temp directory: %w", ErrRenderFailed, err)
	}

	outputPath := filepath.Join(p.opts.TempDir, fmt.Sprintf("output_%s.mp4", uuid.NewString()))

	kwargs := ffmpeg.KwArgs{
		"c:v":    "libx264",
		"c:a":    "aac",
		"preset": p.opts.Preset,
		"crf":    p.opts.CRF,
	}
	if filter := BuildFilter(cues, p.opts.FontFile); filter != "" {
		kwargs["vf"] = filter
	}

	p.logger.Infow("Rendering subtitles",
		"video", videoPath,
		"cues", len(cues),
		"preset", p.opts.Preset,
		"crf", p.opts.CRF,
	)

	stream := ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath)

	if err := run(ctx, stream); err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if !nonEmpty(outputPath) {
		return "", fmt.Errorf("%w: output file is empty", ErrRenderFailed)
	}

	return outputPath, nil
}

// runs a compiled ffmpeg command, killing it when ctx is done
func run(ctx context.Context, stream *ffmpeg.Stream) error {
	cmd := stream.Compile()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 3))
		}
		return nil
	}
}

// last n lines of the ffmpeg log
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Midpoint is the representative frame time of a range.
func Midpoint(start, end float64) float64 {
	return (start + end) / 2
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	videoExts := map[string]bool{
		".mp4":  true,
		".mkv":  true,
		".avi":  true,
		".mov":  true,
		".wmv":  true,
		".flv":  true,
		".webm": true,
		".m4v":  true,
		".mpeg": true,
		".mpg":  true,
		".3gp":  true,
	}
	return videoExts[ext]
}
