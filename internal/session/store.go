package session

import (
	"github.com/mgpai22/subdeck/internal/subtitle"
)

// Store holds the editing state of one subtitle session: the timeline, the
// playhead, the entry being edited and coarse validation flags.
//
// A Store is owned by a single caller and is not safe for concurrent use.
// Every structural action keeps TotalDuration in sync before returning.
type Store struct {
	timeline *subtitle.Timeline

	currentTime   float64
	playing       bool
	videoDuration float64

	editing      bool
	editingEntry *subtitle.Entry
	activeIndex  int

	timelineExceeding bool
	textChanges       bool
	exporting         bool
}

func NewStore() *Store {
	return &Store{activeIndex: -1}
}

// SetTimeline replaces the timeline wholesale. The store keeps its own copy.
func (s *Store) SetTimeline(tl *subtitle.Timeline) {
	s.timeline = tl.Clone()
	s.activeIndex = -1
}

// LoadText parses bracketed-timecode text and replaces the timeline.
func (s *Store) LoadText(text, source string) *subtitle.Timeline {
	s.timeline = subtitle.ParseText(text, source)
	s.activeIndex = -1
	return s.timeline.Clone()
}

// Timeline returns a copy of the current timeline, or nil before one is loaded.
func (s *Store) Timeline() *subtitle.Timeline {
	return s.timeline.Clone()
}

// Clear drops the timeline and rewinds playback.
func (s *Store) Clear() {
	s.timeline = nil
	s.currentTime = 0
	s.playing = false
	s.activeIndex = -1
	s.StopEditing()
}

func (s *Store) SetCurrentTime(t float64) { s.currentTime = t }
func (s *Store) CurrentTime() float64 { return s.currentTime }
func (s *Store) SetPlaying(p bool) { s.playing = p }
func (s *Store) Playing() bool { return s.playing }

func (s *Store) SetVideoDuration(d float64) { s.videoDuration = d }
func (s *Store) VideoDuration() float64 { return s.videoDuration }

// CurrentEntry is the entry shown at the playhead.
func (s *Store) CurrentEntry() (subtitle.Entry, bool) {
	return subtitle.EntryAt(s.timeline, s.currentTime)
}

func (s *Store) EntryAt(t float64) (subtitle.Entry, bool) {
	return subtitle.EntryAt(s.timeline, t)
}

func (s *Store) EntriesInRange(start, end float64) []subtitle.Entry {
	return subtitle.EntriesInRange(s.timeline, start, end)
}

func (s *Store) TotalDuration() float64 {
	if s.timeline == nil {
		return 0
	}
	return s.timeline.TotalDuration
}

func (s *Store) Count() int { return s.timeline.Len() }
func (s *Store) HasEntries() bool { return s.Count() > 0 }
func (s *Store) IndexOf(id string) int { return s.timeline.IndexOf(id) }

// NewID returns an id not used by any entry of the timeline.
func (s *Store) NewID() string {
	return s.timeline.NewID()
}

// StartEditing detaches a copy of the entry for the editor. Changes reach the
// timeline only through SaveEditing.
func (s *Store) StartEditing(e subtitle.Entry) {
	clone := e
	s.editingEntry = &clone
	s.editing = true
}

// EditingEntry returns the detached copy being edited.
func (s *Store) EditingEntry() (subtitle.Entry, bool) {
	if s.editingEntry == nil {
		return subtitle.Entry{}, false
	}
	return *s.editingEntry, true
}

// SetEditingEntry replaces the detached copy, keeping editing mode on.
func (s *Store) SetEditingEntry(e subtitle.Entry) {
	if !s.editing {
		return
	}
	clone := e
	s.editingEntry = &clone
}

func (s *Store) Editing() bool { return s.editing }

func (s *Store) StopEditing() {
	s.editing = false
	s.editingEntry = nil
}

// SaveEditing commits the detached copy through UpdateEntry and leaves
// editing mode. It reports whether an entry was updated.
func (s *Store) SaveEditing() bool {
	if s.editingEntry == nil {
		s.StopEditing()
		return false
	}
	updated := s.UpdateEntry(*s.editingEntry)
	s.StopEditing()
	return updated
}

// AddEntry inserts an entry, creating an empty timeline seeded with the video
// duration when none is loaded.
func (s *Store) AddEntry(e subtitle.Entry) {
	if s.timeline == nil {
		s.timeline = subtitle.NewTimeline(s.videoDuration)
	}
	s.timeline.Add(e)
}

// UpdateEntry replaces an entry by id. Unknown ids are ignored.
func (s *Store) UpdateEntry(e subtitle.Entry) bool {
	if s.timeline == nil {
		return false
	}
	return s.timeline.Update(e)
}

// RemoveEntry deletes an entry by id, clearing the active index when it
// pointed past the end.
func (s *Store) RemoveEntry(id string) bool {
	if s.timeline == nil {
		return false
	}
	removed := s.timeline.Remove(id)
	if s.activeIndex >= s.timeline.Len() {
		s.activeIndex = -1
	}
	return removed
}

// SetActiveIndex selects an entry by position; out-of-range indexes are
// ignored.
func (s *Store) SetActiveIndex(i int) {
	if i < 0 || i >= s.Count() {
		return
	}
	s.activeIndex = i
}

// SetActiveByID selects an entry by id; unknown ids are ignored.
func (s *Store) SetActiveByID(id string) {
	s.SetActiveIndex(s.IndexOf(id))
}

func (s *Store) ActiveIndex() int { return s.activeIndex }

func (s *Store) ActiveEntry() (subtitle.Entry, bool) {
	if s.activeIndex < 0 || s.activeIndex >= s.Count() {
		return subtitle.Entry{}, false
	}
	return s.timeline.Entries[s.activeIndex], true
}

// ValidateChunk checks one entry against the loaded timeline and video
// duration.
func (s *Store) ValidateChunk(e subtitle.Entry) subtitle.ChunkResult {
	return subtitle.ValidateChunk(e, s.timeline, s.videoDuration)
}

func (s *Store) ValidateAll() subtitle.Report {
	return subtitle.ValidateAll(s.timeline, s.videoDuration)
}

// ChunkStatus validates the entry with the given id. Unknown ids are valid.
func (s *Store) ChunkStatus(id string) subtitle.ChunkResult {
	e, ok := s.timeline.Find(id)
	if !ok {
		return subtitle.ChunkResult{IsValid: true, Errors: []subtitle.Violation{}}
	}
	return s.ValidateChunk(e)
}

func (s *Store) SetTimelineExceeding(v bool) { s.timelineExceeding = v }
func (s *Store) TimelineExceeding() bool { return s.timelineExceeding }
func (s *Store) SetTextChanges(v bool) { s.textChanges = v }
func (s *Store) TextChanges() bool { return s.textChanges }
func (s *Store) SetExporting(v bool) { s.exporting = v }
func (s *Store) Exporting() bool { return s.exporting }

// ResetValidation clears the coarse validation flags.
func (s *Store) ResetValidation() {
	s.timelineExceeding = false
	s.textChanges = false
}

func (s *Store) HasValidationIssues() bool {
	return s.timelineExceeding || s.textChanges
}

// CanExport is true when no validation flag is raised and no export is
// already running.
func (s *Store) CanExport() bool {
	return !s.HasValidationIssues() && !s.exporting
}

// Export renders the timeline as bracketed-timecode text.
func (s *Store) Export() string {
	return subtitle.Serialize(s.timeline)
}
