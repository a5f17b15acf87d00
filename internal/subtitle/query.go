package subtitle

// EntryAt returns the entry whose [StartTime, EndTime] contains t, boundaries
// included. When entries overlap at t the first one in slice order wins.
func EntryAt(tl *Timeline, t float64) (Entry, bool) {
	if tl == nil {
		return Entry{}, false
	}
	for _, entry := range tl.Entries {
		if t >= entry.StartTime && t <= entry.EndTime {
			return entry, true
		}
	}
	return Entry{}, false
}

// EntriesInRange returns every entry intersecting [start, end], boundaries
// included, in slice order.
func EntriesInRange(tl *Timeline, start, end float64) []Entry {
	result := []Entry{}
	if tl == nil {
		return result
	}
	for _, entry := range tl.Entries {
		if intersectsInclusive(entry, start, end) {
			result = append(result, entry)
		}
	}
	return result
}

func intersectsInclusive(e Entry, start, end float64) bool {
	return (e.StartTime >= start && e.StartTime <= end) ||
		(e.EndTime >= start && e.EndTime <= end) ||
		(e.StartTime <= start && e.EndTime >= end)
}
