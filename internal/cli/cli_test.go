package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/subdeck/internal/subtitle"
)

const sampleTranscript = `[00:00-00:04]
First line

[00:05-00:08]
Second line
`

// runs the root command with a clean flag state and returns everything it printed
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// moves into an empty directory with no config file and returns it
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SUBDECK_CONFIG", "")
	t.Setenv("SUBDECK_TEMP_DIR", filepath.Join(dir, "tmp"))
	return dir
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return name
}

// installs shell scripts standing in for ffmpeg and ffprobe
func fakeBinaries(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries are shell scripts")
	}

	ffmpegScript := `#!/bin/sh
for a in "$@"; do
  case "$a" in
    */output_*.mp4|*/frame_*.jpg) echo data > "$a" ;;
  esac
done
`
	ffprobeScript := `#!/bin/sh
echo '{"format":{"duration":"8.000000"},"streams":[{"codec_type":"video","codec_name":"h264","width":1280,"height":720,"avg_frame_rate":"30/1"}]}'
`
	ffmpegPath := filepath.Join(dir, "ffmpeg")
	ffprobePath := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(ffmpegPath, []byte(ffmpegScript), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ffprobePath, []byte(ffprobeScript), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUBDECK_FFMPEG_PATH", ffmpegPath)
	t.Setenv("SUBDECK_FFPROBE_PATH", ffprobePath)
	t.Setenv("SUBDECK_FFMPEG_DOWNLOAD", "false")
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"12.5", 12.5, false},
		{"0", 0, false},
		{"01:05", 65, false},
		{" 00:03 ", 3, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"1:5", 65, false},
		{"01:xx", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "parse", "transcript.txt")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var tl subtitle.Timeline
	if err := json.Unmarshal([]byte(out), &tl); err != nil {
		t.Fatalf("output is not timeline JSON: %v\n%s", err, out)
	}
	if len(tl.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tl.Entries))
	}
	if tl.Entries[1].Text != "Second line" {
		t.Errorf("unexpected text %q", tl.Entries[1].Text)
	}
}

func TestParseCommandStrict(t *testing.T) {
	workspace(t)
	writeFile(t, "noisy.txt", "stray line\n"+sampleTranscript)

	if _, err := execute(t, "parse", "noisy.txt"); err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}

	_, err := execute(t, "parse", "noisy.txt", "--strict")
	var parseErr *subtitle.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *subtitle.ParseError, got %v", err)
	}
	if parseErr.Issues[0].Line != 1 {
		t.Errorf("expected issue on line 1, got %d", parseErr.Issues[0].Line)
	}
}

func TestValidateCommand(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "validate", "transcript.txt", "--duration", "10")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "All 2 entries are valid") {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = execute(t, "validate", "transcript.txt", "-d", "00:04")
	var validationErr *subtitle.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *subtitle.ValidationError, got %v", err)
	}
	if got := validationErr.Report.InvalidChunkIDs; len(got) != 1 || got[0] != "subtitle-2" {
		t.Errorf("unexpected invalid chunks %v", got)
	}
	if !strings.Contains(out, "subtitle-2: [starts_after_video]") {
		t.Errorf("violation not printed: %s", out)
	}

	if _, err := execute(t, "validate", "transcript.txt"); err == nil {
		t.Error("expected an error without --duration or --video")
	}
}

func TestExportCommand(t *testing.T) {
	dir := workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "export", "transcript.txt", "--format", "srt")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 2 entries") {
		t.Errorf("unexpected output: %s", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "transcript.srt"))
	if err != nil {
		t.Fatalf("srt not written: %v", err)
	}
	if !strings.Contains(string(data), "00:00:05,000 --> 00:00:08,000") {
		t.Errorf("unexpected srt:\n%s", data)
	}

	if _, err := execute(t, "export", "transcript.txt", "-f", "txt"); err == nil {
		t.Error("expected export to refuse overwriting its input")
	}
	if _, err := execute(t, "export", "transcript.txt", "-f", "docx"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestQueryCommand(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"at", []string{"--at", "00:06"}, "subtitle-2 [00:05-00:08] Second line\n"},
		{"gap", []string{"--at", "4.5"}, "No entry at 00:00:04.50\n"},
		{"range", []string{"--from", "3", "--to", "6"}, "subtitle-1 [00:00-00:04] First line\nsubtitle-2 [00:05-00:08] Second line\n"},
		{"empty range", []string{"--from", "20", "--to", "30"}, "No entries in range\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"query", "transcript.txt"}, tt.args...)...)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := execute(t, "query", "transcript.txt", "--from", "6", "--to", "3"); err == nil {
		t.Error("expected an error for a reversed range")
	}
}

func TestInfoCommand(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "info", "transcript.txt")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{"Source: transcript.txt", "Entries: 2", "Duration: 00:00:08.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEditFlow(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	if _, err := execute(t, "edit", "show"); err == nil {
		t.Fatal("expected show to fail without a session")
	}

	out, err := execute(t, "edit", "load", "transcript.txt")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !strings.Contains(out, "Loaded 2 entries") {
		t.Errorf("unexpected load output: %s", out)
	}

	out, err = execute(t, "edit", "add", "--start", "00:09", "--end", "12", "--text", "Thanks for watching", "-d", "8")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out, "Added subtitle-3") {
		t.Errorf("unexpected add output: %s", out)
	}
	if !strings.Contains(out, "warning: subtitle-3:") {
		t.Errorf("expected a warning for an entry past the video end: %s", out)
	}

	if _, err := execute(t, "edit", "update", "subtitle-2", "--text", "Fixed line", "--color", "yellow"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := execute(t, "edit", "update", "subtitle-9", "--text", "nope"); err == nil {
		t.Error("expected update of an unknown id to fail")
	}

	out, err = execute(t, "edit", "remove", "subtitle-1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !strings.Contains(out, "2 entries left") {
		t.Errorf("unexpected remove output: %s", out)
	}

	out, err = execute(t, "edit", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	want := "[00:05-00:08]\nFixed line\n\n[00:09-00:12]\nThanks for watching\n"
	if out != want {
		t.Errorf("show = %q, want %q", out, want)
	}

	if _, err := execute(t, "edit", "show", "-o", "edited.txt"); err != nil {
		t.Fatalf("show to file failed: %v", err)
	}
	tl, err := subtitle.Open("edited.txt")
	if err != nil {
		t.Fatalf("failed to reopen edited transcript: %v", err)
	}
	if tl.Len() != 2 {
		t.Errorf("expected 2 entries in edited.txt, got %d", tl.Len())
	}

	if _, err := execute(t, "edit", "clear"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(defaultSessionPath); !os.IsNotExist(err) {
		t.Errorf("session file still present: %v", err)
	}
}

func TestEditShowToFileMatchesStdout(t *testing.T) {
	workspace(t)

	if _, err := execute(t, "edit", "add", "--start", "0", "--end", "4"); err != nil {
		t.Fatalf("add without text failed: %v", err)
	}
	if _, err := execute(t, "edit", "add", "--start", "5", "--end", "8", "--text", "Hi"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	stdout, err := execute(t, "edit", "show")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if _, err := execute(t, "edit", "show", "-o", filepath.Join("out", "show.txt")); err != nil {
		t.Fatalf("show to file failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("out", "show.txt"))
	if err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
	if string(data) != stdout {
		t.Errorf("file = %q, stdout = %q", data, stdout)
	}
	if want := "[00:00-00:04]\n\n\n[00:05-00:08]\nHi\n"; stdout != want {
		t.Errorf("show = %q, want %q", stdout, want)
	}
}

func TestEditUpdateKeepsStyling(t *testing.T) {
	workspace(t)
	writeFile(t, "transcript.txt", sampleTranscript)

	if _, err := execute(t, "edit", "load", "transcript.txt", "--session", "s.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "edit", "update", "subtitle-1", "--size", "large", "--session", "s.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "edit", "update", "subtitle-1", "--start", "1", "--session", "s.json"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile("s.json")
	if err != nil {
		t.Fatal(err)
	}
	var snap struct {
		Entries []subtitle.Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	first := snap.Entries[0]
	if first.StartTime != 1 || first.Styling.Size != subtitle.SizeLarge {
		t.Errorf("unexpected entry after updates: %+v", first)
	}
	if first.Text != "First line" {
		t.Errorf("text changed to %q", first.Text)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := workspace(t)
	fakeBinaries(t, dir)
	writeFile(t, "clip.mp4", "not really a video")
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "render", "clip.mp4", "transcript.txt", "--validate")
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Video rendered successfully") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip_subtitled.mp4")); err != nil {
		t.Errorf("rendered video missing: %v", err)
	}

	writeFile(t, "late.txt", "[00:09-00:12]\nToo late\n")
	_, err = execute(t, "render", "clip.mp4", "late.txt", "--validate", "-o", "late.mp4")
	var validationErr *subtitle.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *subtitle.ValidationError, got %v", err)
	}
	if _, err := os.Stat("late.mp4"); !os.IsNotExist(err) {
		t.Error("render should not run for an invalid transcript")
	}

	if _, err := execute(t, "render", "transcript.txt", "transcript.txt"); err == nil {
		t.Error("expected an error for a non-video input")
	}
}

func TestFrameCommand(t *testing.T) {
	dir := workspace(t)
	fakeBinaries(t, dir)
	writeFile(t, "clip.mp4", "not really a video")
	writeFile(t, "transcript.txt", sampleTranscript)

	out, err := execute(t, "frame", "clip.mp4", "--at", "3", "-o", "thumb.jpg")
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	if out != "00:00:03.00 thumb.jpg\n" {
		t.Errorf("unexpected output %q", out)
	}

	out, err = execute(t, "frame", "clip.mp4", "--transcript", "transcript.txt", "-o", "frames")
	if err != nil {
		t.Fatalf("frame --transcript failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "subtitle-1 00:00:02.00 ") {
		t.Errorf("unexpected output %q", out)
	}
	for _, name := range []string{"subtitle-1.jpg", "subtitle-2.jpg"} {
		if _, err := os.Stat(filepath.Join("frames", name)); err != nil {
			t.Errorf("frame %s missing: %v", name, err)
		}
	}
}

func TestProbeCommand(t *testing.T) {
	dir := workspace(t)
	fakeBinaries(t, dir)
	writeFile(t, "clip.mp4", "not really a video")

	out, err := execute(t, "probe", "clip.mp4")
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	for _, want := range []string{"Duration: 00:00:08.00 (8.000s)", "h264 1280x720 @ 30.00 fps", "Audio: false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPhraseCommand(t *testing.T) {
	dir := workspace(t)
	fakeBinaries(t, dir)
	writeFile(t, "clip.mp4", "not really a video")

	out, err := execute(t, "phrase", "clip.mp4", "--start", "2", "--end", "6", "--theme", "cta", "--json")
	if err != nil {
		t.Fatalf("phrase failed: %v\n%s", err, out)
	}

	var got struct {
		Text     string  `json:"text"`
		Theme    string  `json:"textTheme"`
		Style    string  `json:"style"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Text == "" || got.Theme != "cta" || got.Style != "professional" || got.Duration != 4 {
		t.Errorf("unexpected phrase %+v", got)
	}

	if _, err := execute(t, "phrase", "clip.mp4", "--start", "6", "--end", "2"); err == nil {
		t.Error("expected an error when end is before start")
	}
	if _, err := execute(t, "phrase", "clip.mp4", "--start", "0", "--end", "2", "--theme", "banner"); err == nil {
		t.Error("expected an error for an unknown theme")
	}
}

func TestStylesCommand(t *testing.T) {
	workspace(t)

	out, err := execute(t, "styles")
	if err != nil {
		t.Fatalf("styles failed: %v", err)
	}
	for _, want := range []string{"Text themes:", "cta", "Styles:", "inspirational", "Scene types:", "product_demo"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLicenseCommand(t *testing.T) {
	t.Setenv("SUBDECK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	out, err := execute(t, "license")
	if err != nil {
		t.Fatalf("license failed: %v", err)
	}
	if !strings.Contains(out, "MIT License") {
		t.Errorf("license text missing:\n%s", out)
	}
}
