package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mgpai22/subdeck/internal/timecode"
)

// matches [MM:SS-MM:SS] anywhere in a line
var timeRangeRegex = regexp.MustCompile(`\[(\d{2,}:\d{2})-(\d{2,}:\d{2})\]`)

// LineIssue describes one line rejected by the strict parser.
type LineIssue struct {
	Line    int
	Content string
	Reason  string
}

// ParseError collects every issue found by ParseTextStrict.
type ParseError struct {
	Issues []LineIssue
}

func (e *ParseError) Error() string {
	if len(e.Issues) == 1 {
		i := e.Issues[0]
		return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d invalid lines:", len(e.Issues)))
	for _, i := range e.Issues {
		sb.WriteString(fmt.Sprintf(" line %d: %s;", i.Line, i.Reason))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// ParseText converts bracketed-timecode text into a timeline:
//
//	[00:00-00:04]
//	Hello world
//
// Each time range takes the first non-blank line after it as its text.
// Anything that does not fit is skipped, so any input yields a timeline.
func ParseText(text, source string) *Timeline {
	tl, _ := parse(text, source)
	return tl
}

// ParseTextStrict is ParseText that reports skipped content as a
// *ParseError. The timeline holds the entries that did parse.
func ParseTextStrict(text, source string) (*Timeline, error) {
	tl, issues := parse(text, source)
	if len(issues) > 0 {
		return tl, &ParseError{Issues: issues}
	}
	return tl, nil
}

func parse(text, source string) (*Timeline, []LineIssue) {
	tl := &Timeline{
		Entries: []Entry{},
		Source:  source,
	}
	var issues []LineIssue

	trimmed := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if trimmed == "" {
		return tl, nil
	}
	lines := strings.Split(trimmed, "\n")

	// index of the line already claimed as the text of an opener
	claimed := -1

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		matches := timeRangeRegex.FindStringSubmatch(line)
		if matches == nil {
			if i != claimed {
				issues = append(issues, LineIssue{
					Line:    i + 1,
					Content: line,
					Reason:  "text outside of a time range",
				})
			}
			continue
		}

		startTime, err := timecode.Parse(matches[1])
		if err != nil {
			issues = append(issues, LineIssue{Line: i + 1, Content: line, Reason: err.Error()})
			continue
		}
		endTime, err := timecode.Parse(matches[2])
		if err != nil {
			issues = append(issues, LineIssue{Line: i + 1, Content: line, Reason: err.Error()})
			continue
		}

		content := ""
		next := nextNonBlank(lines, i+1)
		if next >= 0 {
			content = strings.TrimSpace(lines[next])
			claimed = next
			if timeRangeRegex.MatchString(content) {
				issues = append(issues, LineIssue{
					Line:    i + 1,
					Content: line,
					Reason:  "time range is followed by another time range instead of text",
				})
			}
		} else {
			issues = append(issues, LineIssue{
				Line:    i + 1,
				Content: line,
				Reason:  "time range has no text",
			})
		}

		tl.Entries = append(tl.Entries, Entry{
			ID:                 fmt.Sprintf("%s%d", idPrefix, len(tl.Entries)+1),
			StartTime:          startTime,
			EndTime:            endTime,
			Text:               content,
			StartTimeFormatted: matches[1],
			EndTimeFormatted:   matches[2],
			Styling:            DefaultStyling(),
		})
		if endTime > tl.TotalDuration {
			tl.TotalDuration = endTime
		}
	}

	return tl, issues
}

func nextNonBlank(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}
