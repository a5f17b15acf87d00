package subtitle

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// represents supported transcript formats
type Format string

const (
	FormatText Format = "txt"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
)

// ErrUnsupportedFormat is returned for unknown format names or extensions.
var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// parses a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "txt", "text", "":
		return FormatText, nil
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Export writes the timeline in the given format.
func Export(tl *Timeline, format Format, w io.Writer) error {
	if format == FormatText {
		_, err := io.WriteString(w, Serialize(tl))
		return err
	}

	subs := toAstisub(tl)
	if len(subs.Items) == 0 {
		return fmt.Errorf("no entries to export as %s", format)
	}

	var err error
	switch format {
	case FormatSRT:
		err = subs.WriteToSRT(w)
	case FormatVTT:
		err = subs.WriteToWebVTT(w)
	case FormatASS:
		err = subs.WriteToSSA(w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

// Import reads a transcript in the given format. Multi-line cues are
// joined into a single line of dialogue.
func Import(r io.Reader, format Format, source string) (*Timeline, error) {
	if format == FormatText {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}
		return ParseText(string(data), source), nil
	}

	var (
		subs *astisub.Subtitles
		err  error
	)
	switch format {
	case FormatSRT:
		subs, err = astisub.ReadFromSRT(r)
	case FormatVTT:
		subs, err = astisub.ReadFromWebVTT(r)
	case FormatASS:
		subs, err = astisub.ReadFromSSA(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}

	return fromAstisub(subs, source), nil
}

func toAstisub(tl *Timeline) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	if tl == nil {
		return subs
	}
	for _, e := range tl.Entries {
		subs.Items = append(subs.Items, &astisub.Item{
			StartAt: secondsToDuration(e.StartTime),
			EndAt:   secondsToDuration(e.EndTime),
			Lines: []astisub.Line{
				{Items: []astisub.LineItem{{Text: e.Text}}},
			},
		})
	}
	return subs
}

func fromAstisub(subs *astisub.Subtitles, source string) *Timeline {
	tl := &Timeline{Entries: []Entry{}, Source: source}
	for _, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			if text := strings.TrimSpace(line.String()); text != "" {
				lines = append(lines, text)
			}
		}

		entry := NewEntry(
			fmt.Sprintf("%s%d", idPrefix, len(tl.Entries)+1),
			item.StartAt.Seconds(),
			item.EndAt.Seconds(),
			strings.Join(lines, " "),
		)
		tl.Entries = append(tl.Entries, entry)
		tl.TotalDuration = max(tl.TotalDuration, entry.EndTime)
	}
	return tl
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", "":
		return FormatText, nil
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	case ".ass", ".ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".txt"
	}
}
