package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mgpai22/subdeck/internal/subtitle"
)

// ErrNoSnapshot is returned when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no saved session")

// Snapshot is the persisted form of a timeline.
type Snapshot struct {
	Entries       []subtitle.Entry `json:"entries"`
	TotalDuration float64          `json:"totalDuration"`
	Source        string           `json:"source"`
}

// Snapshot captures the current timeline. An unloaded store yields an empty
// snapshot.
func (s *Store) Snapshot() Snapshot {
	if s.timeline == nil {
		return Snapshot{Entries: []subtitle.Entry{}}
	}
	tl := s.timeline.Clone()
	return Snapshot{
		Entries:       tl.Entries,
		TotalDuration: tl.TotalDuration,
		Source:        tl.Source,
	}
}

// Restore overwrites the timeline with a snapshot.
func (s *Store) Restore(snap Snapshot) {
	entries := make([]subtitle.Entry, len(snap.Entries))
	copy(entries, snap.Entries)
	for i := range entries {
		entries[i].Styling = entries[i].Styling.Normalize()
		entries[i].Refresh()
	}

	s.timeline = &subtitle.Timeline{
		Entries:       entries,
		TotalDuration: snap.TotalDuration,
		Source:        snap.Source,
	}
	s.activeIndex = -1
	s.StopEditing()
}

// FileStore keeps one snapshot as a JSON file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save writes the snapshot, replacing any previous one.
func (f *FileStore) Save(snap Snapshot) error {
	if snap.Entries == nil {
		snap.Entries = []subtitle.Entry{}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Load reads the saved snapshot. A missing file is ErrNoSnapshot.
func (f *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read session: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode session %s: %w", f.Path, err)
	}
	if snap.Entries == nil {
		snap.Entries = []subtitle.Entry{}
	}
	return snap, nil
}

// Clear removes the saved snapshot, if any.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
