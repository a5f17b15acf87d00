package subtitle

import (
	"github.com/mgpai22/subdeck/internal/timecode"
)

// text size of a burned-in subtitle
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// text color of a burned-in subtitle
type Color string

const (
	ColorWhite   Color = "white"
	ColorBlack   Color = "black"
	ColorRed     Color = "red"
	ColorBlue    Color = "blue"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorOrange  Color = "orange"
	ColorPurple  Color = "purple"
	ColorCyan    Color = "cyan"
	ColorMagenta Color = "magenta"
)

// vertical placement of a burned-in subtitle
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

// Colors lists every supported subtitle color.
var Colors = []Color{
	ColorWhite, ColorBlack, ColorRed, ColorBlue, ColorGreen,
	ColorYellow, ColorOrange, ColorPurple, ColorCyan, ColorMagenta,
}

// Styling describes how an entry is drawn by the renderer.
type Styling struct {
	Size     Size     `json:"size"`
	Color    Color    `json:"color"`
	Position Position `json:"position"`
}

// medium white text at the bottom of the frame
func DefaultStyling() Styling {
	return Styling{
		Size:     SizeMedium,
		Color:    ColorWhite,
		Position: PositionBottom,
	}
}

// Normalize replaces unknown values with the defaults.
func (s Styling) Normalize() Styling {
	def := DefaultStyling()
	switch s.Size {
	case SizeSmall, SizeMedium, SizeLarge:
	default:
		s.Size = def.Size
	}
	if !validColor(s.Color) {
		s.Color = def.Color
	}
	switch s.Position {
	case PositionTop, PositionCenter, PositionBottom:
	default:
		s.Position = def.Position
	}
	return s
}

func validColor(c Color) bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Entry is one timed subtitle line. Times are in seconds.
//
// StartTimeFormatted and EndTimeFormatted cache the MM:SS rendering of the
// numeric times; Refresh brings them back in sync.
type Entry struct {
	ID                 string  `json:"id"`
	StartTime          float64 `json:"startTime"`
	EndTime            float64 `json:"endTime"`
	Text               string  `json:"text"`
	StartTimeFormatted string  `json:"startTimeFormatted"`
	EndTimeFormatted   string  `json:"endTimeFormatted"`
	Styling            Styling `json:"styling"`
}

// creates an entry with default styling and a fresh format cache
func NewEntry(id string, start, end float64, text string) Entry {
	e := Entry{
		ID:        id,
		StartTime: start,
		EndTime:   end,
		Text:      text,
		Styling:   DefaultStyling(),
	}
	e.Refresh()
	return e
}

// Refresh recomputes the formatted times from the numeric fields. Times that
// MM:SS cannot express (negative, NaN or infinite) are written as 00:00;
// validation still reports them.
func (e *Entry) Refresh() {
	e.StartTimeFormatted = formatCache(e.StartTime)
	e.EndTimeFormatted = formatCache(e.EndTime)
}

func formatCache(seconds float64) string {
	s, err := timecode.Format(seconds)
	if err != nil {
		return "00:00"
	}
	return s
}

// Duration is EndTime minus StartTime.
func (e Entry) Duration() float64 {
	return e.EndTime - e.StartTime
}

// Timeline is the full subtitle track for one video.
type Timeline struct {
	Entries       []Entry `json:"entries"`
	TotalDuration float64 `json:"totalDuration"`
	Source        string  `json:"source"`
}

// creates an empty timeline seeded with the known video duration
func NewTimeline(videoDuration float64) *Timeline {
	if videoDuration < 0 {
		videoDuration = 0
	}
	return &Timeline{
		Entries:       []Entry{},
		TotalDuration: videoDuration,
	}
}

// Clone returns a deep copy of the timeline.
func (tl *Timeline) Clone() *Timeline {
	if tl == nil {
		return nil
	}
	entries := make([]Entry, len(tl.Entries))
	copy(entries, tl.Entries)
	return &Timeline{
		Entries:       entries,
		TotalDuration: tl.TotalDuration,
		Source:        tl.Source,
	}
}

// Len returns the number of entries; a nil timeline has none.
func (tl *Timeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.Entries)
}

// maximum end time across all entries, 0 if empty
func (tl *Timeline) maxEndTime() float64 {
	var maxEnd float64
	for _, e := range tl.Entries {
		if e.EndTime > maxEnd {
			maxEnd = e.EndTime
		}
	}
	return maxEnd
}
