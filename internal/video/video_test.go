package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mgpai22/subdeck/internal/subtitle"
)

func TestEscapeFilterText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"it's", `it\\\'s`},
		{"time: 10:30", `time\\: 10\\:30`},
		{"[tag]", `\[tag\]`},
		{"a, b; c", `a\, b\; c`},
		{`back\slash`, `back\\\\slash`},
		{"50% off", "50% off"},
	}

	for _, tt := range tests {
		if got := EscapeFilterText(tt.in); got != tt.want {
			t.Errorf("EscapeFilterText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// nextToken unescapes one token the way ffmpeg's av_get_token does: a
// backslash takes the next byte literally, single quotes take everything up
// to the closing quote literally, and unescaped trailing whitespace is dropped.
func nextToken(s, term string) (token, rest string) {
	s = strings.TrimLeft(s, " \n\t\r")
	var out []byte
	end := 0
	i := 0
	for i < len(s) && !strings.ContainsRune(term, rune(s[i])) {
		c := s[i]
		i++
		switch {
		case c == '\\' && i < len(s):
			out = append(out, s[i])
			i++
			end = len(out)
		case c == '\'':
			for i < len(s) && s[i] != '\'' {
				out = append(out, s[i])
				i++
			}
			if i < len(s) {
				i++
				end = len(out)
			}
		default:
			out = append(out, c)
		}
	}
	for len(out) > end && strings.ContainsRune(" \n\t\r", rune(out[len(out)-1])) {
		out = out[:len(out)-1]
	}
	return string(out), s[i:]
}

// decodeGraph splits a filter chain and its options the way ffmpeg parses
// -vf: the graph parser first, then each filter's key=value option parser.
func decodeGraph(t *testing.T, graph string) []map[string]string {
	t.Helper()

	var filters []map[string]string
	rest := graph
	for rest != "" {
		name, r := nextToken(rest, "=,;[")
		if name != "drawtext" {
			t.Fatalf("unexpected filter %q in %q", name, graph)
		}
		if !strings.HasPrefix(r, "=") {
			t.Fatalf("filter without options in %q", graph)
		}
		args, r := nextToken(r[1:], "[],;")

		opts := map[string]string{}
		for args != "" {
			key, value, ok := strings.Cut(args, "=")
			if !ok {
				t.Fatalf("option without value %q in %q", args, graph)
			}
			var more string
			opts[key], more = nextToken(value, ":")
			args = strings.TrimPrefix(more, ":")
		}
		filters = append(filters, opts)

		switch {
		case r == "":
			rest = ""
		case r[0] == ',':
			rest = r[1:]
		default:
			t.Fatalf("unexpected graph separator in %q", r)
		}
	}
	return filters
}

func TestBuildFilterDecodesToCueText(t *testing.T) {
	texts := []string{
		"it's",
		"don't stop",
		"a:b, c",
		`back\slash`,
		"[x];y",
		"'quoted'",
		"50% off",
		`it\'s: all, [in]; here`,
	}
	fontFile := "/fonts/Bob's: Font, v2.ttf"

	cues := make([]Cue, len(texts))
	for i, text := range texts {
		cues[i] = Cue{Text: text, StartTime: float64(i), EndTime: float64(i) + 0.5, Styling: subtitle.DefaultStyling()}
	}

	filters := decodeGraph(t, BuildFilter(cues, fontFile))
	if len(filters) != len(texts) {
		t.Fatalf("expected %d filters, got %d", len(texts), len(filters))
	}

	for i, opts := range filters {
		if opts["text"] != texts[i] {
			t.Errorf("filter %d text = %q, want %q", i, opts["text"], texts[i])
		}
		if want := "between(t," + formatSeconds(float64(i)) + "," + formatSeconds(float64(i)+0.5) + ")"; opts["enable"] != want {
			t.Errorf("filter %d enable = %q, want %q", i, opts["enable"], want)
		}
		if opts["expansion"] != "none" {
			t.Errorf("filter %d expansion = %q, want none", i, opts["expansion"])
		}
		if opts["fontfile"] != fontFile {
			t.Errorf("filter %d fontfile = %q, want %q", i, opts["fontfile"], fontFile)
		}
		if opts["boxborderw"] != "8" {
			t.Errorf("filter %d lost trailing options: %v", i, opts)
		}
	}
}

func TestBuildFilter(t *testing.T) {
	cues := []Cue{
		{Text: "Hello", StartTime: 0, EndTime: 4, Styling: subtitle.DefaultStyling()},
	}

	got := BuildFilter(cues, "")
	want := "drawtext=text=Hello:expansion=none:fontsize=28:fontcolor=white:x=(w-text_w)/2:y=h-text_h-h*0.1" +
		":enable='between(t,0,4)'" +
		":shadowcolor=black:shadowx=2:shadowy=2:box=1:boxcolor=black@0.7:boxborderw=8"
	if got != want {
		t.Errorf("BuildFilter() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildFilterChainsCues(t *testing.T) {
	cues := []Cue{
		{Text: "one", StartTime: 0, EndTime: 1.5, Styling: subtitle.Styling{Size: "small", Color: "black", Position: "top"}},
		{Text: "two", StartTime: 2, EndTime: 3, Styling: subtitle.Styling{Size: "large", Color: "red", Position: "center"}},
		{Text: "three", StartTime: 4, EndTime: 5, Styling: subtitle.Styling{Size: "huge", Color: "plaid", Position: "left"}},
	}

	got := BuildFilter(cues, "/fonts/My Font.ttf")
	parts := strings.Split(got, ",drawtext=")
	if len(parts) != 3 {
		t.Fatalf("expected 3 drawtext filters, got %d: %s", len(parts), got)
	}

	checks := []struct {
		part     string
		contains []string
	}{
		{parts[0], []string{"fontsize=20", "fontcolor=black", "y=h*0.1", "between(t,0,1.5)", "shadowcolor=white", "boxcolor=white@0.7"}},
		{parts[1], []string{"fontsize=40", "fontcolor=red", "y=(h-text_h)/2", "boxcolor=black@0.6:boxborderw=6"}},
		{parts[2], []string{"fontsize=28", "fontcolor=white", "y=h-text_h-h*0.1", "boxborderw=8"}},
	}
	for i, c := range checks {
		for _, s := range c.contains {
			if !strings.Contains(c.part, s) {
				t.Errorf("filter %d missing %q: %s", i, s, c.part)
			}
		}
		if !strings.HasSuffix(c.part, ":fontfile=/fonts/My Font.ttf") {
			t.Errorf("filter %d missing font file: %s", i, c.part)
		}
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	if got := BuildFilter(nil, "/font.ttf"); got != "" {
		t.Errorf("expected empty filter, got %q", got)
	}
}

func TestCuesFromTimeline(t *testing.T) {
	tl := subtitle.ParseText("[00:00-00:04]\nHello\n\n[00:05-00:08]\nWorld", "")
	cues := CuesFromTimeline(tl)
	if len(cues) != 2 || cues[1].Text != "World" || cues[1].StartTime != 5 {
		t.Errorf("unexpected cues %+v", cues)
	}
	if CuesFromTimeline(nil) != nil {
		t.Error("expected nil cues for nil timeline")
	}
}

func TestMidpoint(t *testing.T) {
	if got := Midpoint(5, 8); got != 6.5 {
		t.Errorf("Midpoint(5, 8) = %v", got)
	}
	times := MidpointTimes([]Cue{{StartTime: 0, EndTime: 4}, {StartTime: 10, EndTime: 11}})
	if len(times) != 2 || times[0] != 2 || times[1] != 10.5 {
		t.Errorf("MidpointTimes() = %v", times)
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := map[string]bool{
		"clip.mp4":  true,
		"CLIP.MOV":  true,
		"a.webm":    true,
		"song.mp3":  false,
		"notes.txt": false,
		"noext":     false,
	}
	for path, want := range tests {
		if got := IsVideoFile(path); got != want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"}
		],
		"format": {"duration": "12.500000"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Seconds() != 12.5 || info.Width != 1920 || info.Height != 1080 || info.Codec != "h264" || !info.HasAudio {
		t.Errorf("unexpected info %+v", info)
	}
	if info.FrameRate < 29.96 || info.FrameRate > 29.98 {
		t.Errorf("unexpected frame rate %v", info.FrameRate)
	}

	if _, err := parseProbe([]byte(`{"format": {"duration": "N/A"}}`)); err == nil {
		t.Error("expected error for missing duration")
	}
	if _, err := parseProbe([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := map[string]float64{
		"25/1": 25,
		"24":   24,
		"0/0":  0,
		"x/1":  0,
		"":     0,
	}
	for in, want := range tests {
		if got := parseFrameRate(in); got != want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

type fakeBins struct {
	ffmpeg, ffprobe string
	err             error
}

func (f fakeBins) FFmpegPath(context.Context) (string, error)  { return f.ffmpeg, f.err }
func (f fakeBins) FFprobePath(context.Context) (string, error) { return f.ffprobe, f.err }

// writes an executable shell script standing in for ffmpeg or ffprobe
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// the fake ffmpeg writes its last .jpg or .mp4 argument, i.e. the output
const fakeFFmpeg = `out=""
for a in "$@"; do
  case "$a" in
    *.jpg|*.mp4) out="$a" ;;
  esac
done
echo "encoded" > "$out"
`

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.mp4")
	if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessorExtractFrame(t *testing.T) {
	bins := fakeBins{ffmpeg: writeScript(t, "ffmpeg", fakeFFmpeg)}
	p := NewProcessor(bins, Options{TempDir: t.TempDir()}, nil)

	path, err := p.ExtractFrame(context.Background(), writeVideo(t), 6.5)
	if err != nil {
		t.Fatalf("ExtractFrame failed: %v", err)
	}
	if filepath.Ext(path) != ".jpg" || !nonEmpty(path) {
		t.Errorf("unexpected frame %q", path)
	}
}

func TestProcessorRender(t *testing.T) {
	bins := fakeBins{ffmpeg: writeScript(t, "ffmpeg", fakeFFmpeg)}
	p := NewProcessor(bins, Options{TempDir: t.TempDir(), FontFile: "/none.ttf"}, nil)

	cues := []Cue{{Text: "Hi, there", StartTime: 0, EndTime: 2, Styling: subtitle.DefaultStyling()}}
	path, err := p.Render(context.Background(), writeVideo(t), cues)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "output_") || !nonEmpty(path) {
		t.Errorf("unexpected output %q", path)
	}
}

func TestProcessorFailures(t *testing.T) {
	failing := fakeBins{ffmpeg: writeScript(t, "ffmpeg", "echo 'Invalid data found' >&2\nexit 1\n")}
	p := NewProcessor(failing, Options{TempDir: t.TempDir()}, nil)
	video := writeVideo(t)

	_, err := p.ExtractFrame(context.Background(), video, 1)
	if !errors.Is(err, ErrExtractionFailed) || !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("expected ErrExtractionFailed with ffmpeg log, got %v", err)
	}

	_, err = p.Render(context.Background(), video, nil)
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("expected ErrRenderFailed, got %v", err)
	}

	_, err = p.ExtractFrame(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), 1)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed for missing video, got %v", err)
	}

	_, err = p.ExtractFrame(context.Background(), video, -1)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed for negative time, got %v", err)
	}

	noBins := NewProcessor(fakeBins{err: errors.New("no ffmpeg")}, Options{TempDir: t.TempDir()}, nil)
	_, err = noBins.Render(context.Background(), video, nil)
	if !errors.Is(err, ErrRenderFailed) {
		t.Errorf("expected ErrRenderFailed when ffmpeg is missing, got %v", err)
	}
}

func TestProcessorCancel(t *testing.T) {
	slow := fakeBins{ffmpeg: writeScript(t, "ffmpeg", "exec sleep 5\n")}
	p := NewProcessor(slow, Options{TempDir: t.TempDir()}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.ExtractFrame(ctx, writeVideo(t), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("ffmpeg was not killed on cancellation")
	}
}

func TestProcessorDuration(t *testing.T) {
	probe := writeScript(t, "ffprobe", `echo '{"format": {"duration": "8.04"}, "streams": []}'`+"\n")
	p := NewProcessor(fakeBins{ffprobe: probe}, Options{TempDir: t.TempDir()}, nil)

	d, err := p.Duration(context.Background(), writeVideo(t))
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if d < 8.039 || d > 8.041 {
		t.Errorf("Duration() = %v, want 8.04", d)
	}
}

type countingRenderer struct {
	inFlight, peak atomic.Int32
	failAt         float64
}

func (r *countingRenderer) ExtractFrame(ctx context.Context, videoPath string, at float64) (string, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	if at == r.failAt {
		return "", errors.New("boom")
	}
	return videoPath + "@" + formatSeconds(at), nil
}

func (r *countingRenderer) Render(context.Context, string, []Cue) (string, error) {
	return "", nil
}

func TestExtractFrames(t *testing.T) {
	r := &countingRenderer{failAt: -1}
	times := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	frames, err := ExtractFrames(context.Background(), r, "v.mp4", times, 3)
	if err != nil {
		t.Fatalf("ExtractFrames failed: %v", err)
	}
	if len(frames) != len(times) {
		t.Fatalf("expected %d frames, got %d", len(times), len(frames))
	}
	for i, f := range frames {
		if f.Index != i || f.At != times[i] || f.Path != "v.mp4@"+formatSeconds(times[i]) {
			t.Errorf("frame %d out of order: %+v", i, f)
		}
	}
	if peak := r.peak.Load(); peak > 3 {
		t.Errorf("concurrency limit exceeded: %d in flight", peak)
	}
}

func TestExtractFramesError(t *testing.T) {
	r := &countingRenderer{failAt: 2}
	_, err := ExtractFrames(context.Background(), r, "v.mp4", []float64{1, 2, 3}, 1)
	if err == nil || !strings.Contains(err.Error(), "frame 1") {
		t.Errorf("expected error for frame 1, got %v", err)
	}
}
