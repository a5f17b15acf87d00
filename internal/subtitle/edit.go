package subtitle

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

const idPrefix = "subtitle-"

var idRegex = regexp.MustCompile(`^subtitle-(\d+)$`)

// Add appends an entry and re-sorts by start time. TotalDuration never
// shrinks on add.
func (tl *Timeline) Add(entry Entry) {
	entry.Refresh()
	tl.Entries = append(tl.Entries, entry)
	tl.Sort()
	tl.TotalDuration = max(tl.TotalDuration, tl.maxEndTime())
}

// Update replaces the entry with the same ID and re-sorts. It reports false
// and changes nothing when no such entry exists.
func (tl *Timeline) Update(entry Entry) bool {
	idx := tl.IndexOf(entry.ID)
	if idx == -1 {
		return false
	}
	entry.Refresh()
	tl.Entries[idx] = entry
	tl.Sort()
	tl.TotalDuration = max(tl.TotalDuration, tl.maxEndTime())
	return true
}

// Remove deletes the entry with the given ID and recomputes TotalDuration
// from the remaining entries.
func (tl *Timeline) Remove(id string) bool {
	kept := make([]Entry, 0, len(tl.Entries))
	for _, e := range tl.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(tl.Entries)
	tl.Entries = kept
	tl.TotalDuration = tl.maxEndTime()
	return removed
}

// Sort orders entries by start time, keeping ties in their current order.
func (tl *Timeline) Sort() {
	sort.SliceStable(tl.Entries, func(i, j int) bool {
		return tl.Entries[i].StartTime < tl.Entries[j].StartTime
	})
}

// IndexOf returns the position of the entry with the given ID, or -1.
func (tl *Timeline) IndexOf(id string) int {
	if tl == nil {
		return -1
	}
	for i, e := range tl.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the entry with the given ID.
func (tl *Timeline) Find(id string) (Entry, bool) {
	idx := tl.IndexOf(id)
	if idx == -1 {
		return Entry{}, false
	}
	return tl.Entries[idx], true
}

// NewID returns an unused "subtitle-<n>" identifier.
func (tl *Timeline) NewID() string {
	return tl.NewIDAt(time.Now())
}

// NewIDAt returns subtitle-<max+1> over the existing numeric IDs. With no
// numeric IDs to build on it falls back to the unix time in milliseconds.
func (tl *Timeline) NewIDAt(now time.Time) string {
	maxID := -1
	if tl != nil {
		for _, e := range tl.Entries {
			m := idRegex.FindStringSubmatch(e.ID)
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			maxID = max(maxID, n)
		}
	}

	if maxID < 0 {
		return fmt.Sprintf("%s%d", idPrefix, now.UnixMilli())
	}
	return fmt.Sprintf("%s%d", idPrefix, maxID+1)
}
