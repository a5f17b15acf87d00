package subtitle

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mgpai22/subdeck/internal/timecode"
)

// ErrValidationFailed is matched by *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// identifies a broken validation rule
type ViolationCode string

const (
	ViolationEndsAfterVideo   ViolationCode = "ends_after_video"
	ViolationStartsAfterVideo ViolationCode = "starts_after_video"
	ViolationNegativeStart    ViolationCode = "negative_start"
	ViolationEndNotAfterStart ViolationCode = "end_not_after_start"
	ViolationIntersects       ViolationCode = "intersects"
)

// end times may run this far past the video end, to absorb rounding
const endTolerance = 1.0

// Violation is one broken rule with a message meant for the editor UI.
type Violation struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

// ChunkResult is the validation outcome for one entry.
type ChunkResult struct {
	IsValid bool        `json:"isValid"`
	Errors  []Violation `json:"errors"`
}

// Has reports whether the result contains the given violation.
func (r ChunkResult) Has(code ViolationCode) bool {
	for _, v := range r.Errors {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Report aggregates ChunkResults over a timeline.
type Report struct {
	IsValid         bool                   `json:"isValid"`
	InvalidChunkIDs []string               `json:"invalidChunks"`
	ErrorsByChunkID map[string][]Violation `json:"errors"`
}

// Err returns a *ValidationError when the report is invalid.
func (r Report) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Report: r}
}

// ValidationError carries an invalid report as an error value.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Report.InvalidChunkIDs))
	for _, id := range e.Report.InvalidChunkIDs {
		msgs := make([]string, 0, len(e.Report.ErrorsByChunkID[id]))
		for _, v := range e.Report.ErrorsByChunkID[id] {
			msgs = append(msgs, v.Message)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", id, strings.Join(msgs, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ValidateChunk checks an entry against the video bounds and against every
// other entry of the timeline. All rules are evaluated; none short-circuits.
//
// Overlap here is half-open: an entry ending exactly where another starts is
// fine, unlike the inclusive boundaries used by EntryAt and EntriesInRange.
func ValidateChunk(entry Entry, tl *Timeline, videoDuration float64) ChunkResult {
	errs := []Violation{}

	if entry.EndTime > videoDuration+endTolerance {
		msg := fmt.Sprintf("Chunk ends at %s but video is only %s long",
			displayTime(entry.EndTime), displayTime(videoDuration))
		errs = append(errs, Violation{Code: ViolationEndsAfterVideo, Message: msg})
	}

	if entry.StartTime > videoDuration {
		msg := fmt.Sprintf("Chunk starts at %s but video is only %s long",
			displayTime(entry.StartTime), displayTime(videoDuration))
		errs = append(errs, Violation{Code: ViolationStartsAfterVideo, Message: msg})
	}

	if entry.StartTime < 0 {
		errs = append(errs, Violation{
			Code:    ViolationNegativeStart,
			Message: "Start time cannot be negative",
		})
	}

	if entry.EndTime <= entry.StartTime {
		errs = append(errs, Violation{
			Code:    ViolationEndNotAfterStart,
			Message: "End time must be after start time",
		})
	}

	if tl != nil {
		for _, other := range tl.Entries {
			if other.ID != entry.ID && overlapsHalfOpen(entry, other) {
				errs = append(errs, Violation{
					Code:    ViolationIntersects,
					Message: "Chunk intersects with other chunks",
				})
				break
			}
		}
	}

	return ChunkResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// ValidateAll validates every entry and collects the failures by ID.
func ValidateAll(tl *Timeline, videoDuration float64) Report {
	report := Report{
		IsValid:         true,
		InvalidChunkIDs: []string{},
		ErrorsByChunkID: map[string][]Violation{},
	}
	if tl == nil {
		return report
	}

	for _, entry := range tl.Entries {
		result := ValidateChunk(entry, tl, videoDuration)
		if !result.IsValid {
			report.InvalidChunkIDs = append(report.InvalidChunkIDs, entry.ID)
			report.ErrorsByChunkID[entry.ID] = result.Errors
		}
	}
	report.IsValid = len(report.InvalidChunkIDs) == 0

	return report
}

// Codes returns the distinct violation codes in a report, sorted.
func (r Report) Codes() []ViolationCode {
	seen := map[ViolationCode]bool{}
	for _, vs := range r.ErrorsByChunkID {
		for _, v := range vs {
			seen[v.Code] = true
		}
	}
	codes := make([]ViolationCode, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

func overlapsHalfOpen(a, b Entry) bool {
	return (a.StartTime >= b.StartTime && a.StartTime < b.EndTime) ||
		(a.EndTime > b.StartTime && a.EndTime <= b.EndTime) ||
		(a.StartTime <= b.StartTime && a.EndTime >= b.EndTime)
}

func displayTime(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
	}
	s, err := timecode.Format(math.Abs(seconds))
	if err != nil {
		return fmt.Sprintf("%v", seconds)
	}
	return sign + s
}
