package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformedTimecode is returned when a MM:SS string cannot be parsed.
	ErrMalformedTimecode = errors.New("malformed timecode")

	// ErrInvalidArgument is returned when a value cannot be formatted.
	ErrInvalidArgument = errors.New("invalid argument")
)

// converts a MM:SS string to seconds
func Parse(s string) (float64, error) {
	minutesStr, secondsStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || minutesStr == "" || secondsStr == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}

	minutes, err := strconv.Atoi(minutesStr)
	if err != nil {
		return 0, fmt.Errorf("%w: minutes in %q", ErrMalformedTimecode, s)
	}
	seconds, err := strconv.Atoi(secondsStr)
	if err != nil {
		return 0, fmt.Errorf("%w: seconds in %q", ErrMalformedTimecode, s)
	}
	if minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("%w: negative field in %q", ErrMalformedTimecode, s)
	}

	return float64(minutes*60 + seconds), nil
}

// Format renders seconds as MM:SS, flooring to whole seconds.
// Minutes are not capped, so an hour renders as "60:00".
func Format(seconds float64) (string, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", fmt.Errorf("%w: cannot format %v seconds", ErrInvalidArgument, seconds)
	}

	total := int64(math.Floor(seconds))
	mins := total / 60
	secs := total % 60

	return fmt.Sprintf("%02d:%02d", mins, secs), nil
}

// MustFormat is like Format but panics on invalid input.
func MustFormat(seconds float64) string {
	s, err := Format(seconds)
	if err != nil {
		panic(err)
	}
	return s
}

// renders seconds as HH:MM:SS.ss for logs
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	secs := math.Mod(seconds, 60)

	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
}
