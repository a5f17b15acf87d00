package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Serialize renders the timeline in the bracketed-timecode text format, in
// the current entry order, one blank line between entries. Callers that need
// canonical order sort the timeline first.
func Serialize(tl *Timeline) string {
	if tl == nil || len(tl.Entries) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(tl.Entries))
	for _, entry := range tl.Entries {
		entry.Refresh()
		blocks = append(blocks, fmt.Sprintf("[%s-%s]\n%s",
			entry.StartTimeFormatted,
			entry.EndTimeFormatted,
			entry.Text))
	}

	return strings.Join(blocks, "\n\n")
}

// writes the serialized timeline to a text file
func WriteText(tl *Timeline, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Serialize(tl)), 0644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
