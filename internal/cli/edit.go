package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/subdeck/internal/session"
	"github.com/mgpai22/subdeck/internal/subtitle"
)

const defaultSessionPath = ".subdeck/session.json"

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a saved timeline entry by entry",
	Long: `Edit a timeline kept in a session file between invocations.

Start by loading a transcript, then add, update or remove entries.
Entries stay sorted by start time.

Examples:
  subdeck edit load transcript.txt
  subdeck edit add --start 00:09 --end 00:12 --text "Thanks for watching"
  subdeck edit update subtitle-2 --text "Fixed typo" --color yellow
  subdeck edit remove subtitle-3
  subdeck edit show -o transcript.txt`,
}

var editLoadCmd = &cobra.Command{
	Use:   "load [transcript]",
	Short: "Replace the session timeline with a transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runEditLoad,
}

var editShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the session timeline as a transcript",
	Args:  cobra.NoArgs,
	RunE:  runEditShow,
}

var editAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry",
	Args:  cobra.NoArgs,
	RunE:  runEditAdd,
}

var editUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change the times, text or styling of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEditUpdate,
}

var editRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEditRemove,
}

var editClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the session file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionFile(cmd).Clear()
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.AddCommand(editLoadCmd, editShowCmd, editAddCmd, editUpdateCmd, editRemoveCmd, editClearCmd)

	editCmd.PersistentFlags().String("session", defaultSessionPath, "Session file path")
	editCmd.PersistentFlags().
		StringP("duration", "d", "", "Video duration in seconds or MM:SS, used to check edited entries")

	for _, c := range []*cobra.Command{editAddCmd, editUpdateCmd} {
		c.Flags().String("start", "", "Start time in seconds or MM:SS")
		c.Flags().String("end", "", "End time in seconds or MM:SS")
		c.Flags().String("text", "", "Entry text")
		c.Flags().String("size", "", "Text size (small, medium, large)")
		c.Flags().String("color", "", "Text color (white, black, red, blue, green, yellow, orange, purple, cyan, magenta)")
		c.Flags().String("position", "", "Text position (top, center, bottom)")
	}
}

func sessionFile(cmd *cobra.Command) *session.FileStore {
	path, _ := cmd.Flags().GetString("session")
	return session.NewFileStore(path)
}

// loads the session into a store; a missing session is an error unless
// allowEmpty is set
func loadSession(cmd *cobra.Command, allowEmpty bool) (*session.Store, *session.FileStore, error) {
	file := sessionFile(cmd)
	store := session.NewStore()

	rawDuration, _ := cmd.Flags().GetString("duration")
	if rawDuration != "" {
		d, err := parseTime(rawDuration)
		if err != nil {
			return nil, nil, fmt.Errorf("--duration: %w", err)
		}
		store.SetVideoDuration(d)
	}

	snap, err := file.Load()
	switch {
	case errors.Is(err, session.ErrNoSnapshot) && allowEmpty:
		return store, file, nil
	case errors.Is(err, session.ErrNoSnapshot):
		return nil, nil, fmt.Errorf("no session at %s: run 'subdeck edit load' first", file.Path)
	case err != nil:
		return nil, nil, err
	}

	store.Restore(snap)
	return store, file, nil
}

func runEditLoad(cmd *cobra.Command, args []string) error {
	tl, err := openTimeline(args[0], false)
	if err != nil {
		return err
	}

	store := session.NewStore()
	store.SetTimeline(tl)

	file := sessionFile(cmd)
	if err := file.Save(store.Snapshot()); err != nil {
		return err
	}

	absPath, _ := filepath.Abs(file.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d entries into %s\n", store.Count(), absPath)
	return nil
}

func runEditShow(cmd *cobra.Command, args []string) error {
	store, _, err := loadSession(cmd, false)
	if err != nil {
		return err
	}
	return writeTranscript(cmd, store.Export())
}

func writeTranscript(cmd *cobra.Command, text string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// applies the styling flags that were set
func applyStyling(cmd *cobra.Command, s subtitle.Styling) subtitle.Styling {
	if v, _ := cmd.Flags().GetString("size"); v != "" {
		s.Size = subtitle.Size(v)
	}
	if v, _ := cmd.Flags().GetString("color"); v != "" {
		s.Color = subtitle.Color(v)
	}
	if v, _ := cmd.Flags().GetString("position"); v != "" {
		s.Position = subtitle.Position(v)
	}
	return s.Normalize()
}

func runEditAdd(cmd *cobra.Command, args []string) error {
	store, file, err := loadSession(cmd, true)
	if err != nil {
		return err
	}

	start, err := timeFlag(cmd, "start")
	if err != nil {
		return err
	}
	end, err := timeFlag(cmd, "end")
	if err != nil {
		return err
	}
	text, _ := cmd.Flags().GetString("text")

	entry := subtitle.NewEntry(store.NewID(), start, end, text)
	entry.Styling = applyStyling(cmd, entry.Styling)

	warnInvalid(cmd, store, entry)
	store.AddEntry(entry)

	if err := file.Save(store.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", entry.ID)
	return nil
}

func runEditUpdate(cmd *cobra.Command, args []string) error {
	store, file, err := loadSession(cmd, false)
	if err != nil {
		return err
	}

	idx := store.IndexOf(args[0])
	if idx < 0 {
		return fmt.Errorf("no entry with id %s", args[0])
	}
	store.SetActiveIndex(idx)
	current, _ := store.ActiveEntry()

	store.StartEditing(current)
	edited, _ := store.EditingEntry()

	if cmd.Flags().Changed("start") {
		if edited.StartTime, err = timeFlag(cmd, "start"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("end") {
		if edited.EndTime, err = timeFlag(cmd, "end"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("text") {
		edited.Text, _ = cmd.Flags().GetString("text")
	}
	edited.Styling = applyStyling(cmd, edited.Styling)
	edited.Refresh()

	store.SetEditingEntry(edited)
	warnInvalid(cmd, store, edited)
	store.SaveEditing()

	if err := file.Save(store.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", edited.ID)
	return nil
}

func runEditRemove(cmd *cobra.Command, args []string) error {
	store, file, err := loadSession(cmd, false)
	if err != nil {
		return err
	}

	if !store.RemoveEntry(args[0]) {
		return fmt.Errorf("no entry with id %s", args[0])
	}
	if err := file.Save(store.Snapshot()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d entries left)\n", args[0], store.Count())
	return nil
}

// prints the violations of an entry; edits are saved regardless
func warnInvalid(cmd *cobra.Command, store *session.Store, e subtitle.Entry) {
	if store.VideoDuration() <= 0 {
		return
	}
	res := store.ValidateChunk(e)
	if res.IsValid {
		return
	}
	out := cmd.ErrOrStderr()
	for _, v := range res.Errors {
		fmt.Fprintf(out, "warning: %s: %s\n", e.ID, v.Message)
	}
}
