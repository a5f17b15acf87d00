package video

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mgpai22/subdeck/internal/subtitle"
)

// candidate fonts for drawtext, first existing one wins
var fontCandidates = []string{
	"/System/Library/Fonts/Arial.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	`C:\Windows\Fonts\arial.ttf`,
	`C:\Windows\Fonts\calibri.ttf`,
}

// FindFontFile returns the first installed candidate font, or "" to let
// ffmpeg pick its default.
func FindFontFile() string {
	for _, path := range fontCandidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// BuildFilter chains one drawtext filter per cue. Each cue is only visible
// between its start and end time.
func BuildFilter(cues []Cue, fontFile string) string {
	if len(cues) == 0 {
		return ""
	}

	filters := make([]string, 0, len(cues))
	for _, cue := range cues {
		filters = append(filters, drawText(cue, fontFile))
	}
	return strings.Join(filters, ",")
}

func drawText(cue Cue, fontFile string) string {
	style := cue.Styling.Normalize()
	x, y := position(style.Position)

	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=text=%s:expansion=none:fontsize=%d:fontcolor=%s:x=%s:y=%s",
		EscapeFilterText(cue.Text),
		fontSize(style.Size),
		style.Color,
		x, y,
	)
	fmt.Fprintf(&b, ":enable='between(t,%s,%s)'",
		formatSeconds(cue.StartTime),
		formatSeconds(cue.EndTime),
	)
	b.WriteString(decoration(style.Color))
	if fontFile != "" {
		b.WriteString(":fontfile=")
		b.WriteString(EscapeFilterText(fontFile))
	}
	return b.String()
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
)

// EscapeFilterText escapes a drawtext option value. ffmpeg unescapes it twice,
// first when splitting the filtergraph and then when splitting the filter's
// options, so the value is escaped for the option parser and the result again
// for the graph parser. Each pass is a single replacement, so no inserted
// backslash is escaped twice within a level.
func EscapeFilterText(text string) string {
	return graphEscaper.Replace(optionEscaper.Replace(text))
}

func fontSize(size subtitle.Size) int {
	switch size {
	case subtitle.SizeSmall:
		return 20
	case subtitle.SizeLarge:
		return 40
	default:
		return 28
	}
}

func position(pos subtitle.Position) (x, y string) {
	x = "(w-text_w)/2"
	switch pos {
	case subtitle.PositionTop:
		return x, "h*0.1"
	case subtitle.PositionCenter:
		return x, "(h-text_h)/2"
	default:
		return x, "h-text_h-h*0.1"
	}
}

// shadow and backing box chosen for contrast with the text color
func decoration(color subtitle.Color) string {
	switch color {
	case subtitle.ColorBlack:
		return ":shadowcolor=white:shadowx=2:shadowy=2:box=1:boxcolor=white@0.7:boxborderw=8"
	case subtitle.ColorWhite, subtitle.ColorYellow:
		return ":shadowcolor=black:shadowx=2:shadowy=2:box=1:boxcolor=black@0.7:boxborderw=8"
	default:
		return ":shadowcolor=black:shadowx=2:shadowy=2:box=1:boxcolor=black@0.6:boxborderw=6"
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
