package creative

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgpai22/subdeck/internal/upload"
)

type fakeExtractor struct {
	dir    string
	err    error
	video  string
	at     float64
	frames []string
}

func (f *fakeExtractor) ExtractFrame(_ context.Context, videoPath string, at float64) (string, error) {
	f.video = videoPath
	f.at = at
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "frame.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		return "", err
	}
	f.frames = append(f.frames, path)
	return path, nil
}

type fakeAnalyzer struct {
	scene Scene
	err   error
}

func (f fakeAnalyzer) Analyze(context.Context, string) (Scene, error) {
	return f.scene, f.err
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, Request) (string, error) {
	return "", errors.New("quota exceeded")
}

func dataURL(content string) string {
	return "data:video/webm;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func TestService_Generate(t *testing.T) {
	dir := t.TempDir()
	frames := &fakeExtractor{dir: dir}
	analyzer := fakeAnalyzer{scene: Scene{SceneType: "tutorial", Mood: "calm"}}
	svc := NewService(upload.NewIntake(dir), frames, analyzer, NewTemplateGenerator(first), nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	phrase, err := svc.Generate(context.Background(), PhraseRequest{
		File:      upload.Payload{URL: dataURL("video-bytes")},
		StartTime: 2,
		EndTime:   6,
		Theme:     ThemeCTA,
		Tone:      ToneCasual,
	})
	require.NoError(t, err)

	assert.Equal(t, "Learn This", phrase.Text)
	assert.Equal(t, "tutorial", phrase.Scene.SceneType)
	assert.Equal(t, 4.0, phrase.Duration)
	assert.Equal(t, 4.0, frames.at)
	assert.Equal(t, ".webm", filepath.Ext(frames.video))
	assert.Equal(t, "2024-05-01T12:00:00Z", phrase.GeneratedAt.Format(time.RFC3339))

	// upload and frame are cleaned up
	assert.NoFileExists(t, frames.video)
	assert.NoFileExists(t, frames.frames[0])
}

func TestService_LocalVideoIsKept(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0644))

	frames := &fakeExtractor{dir: dir}
	svc := NewService(nil, frames, fakeAnalyzer{scene: Scene{SceneType: "lifestyle"}}, NewTemplateGenerator(first), nil)

	phrase, err := svc.Generate(context.Background(), PhraseRequest{
		VideoPath: video,
		StartTime: 0,
		EndTime:   1,
		Theme:     ThemeContextual,
	})
	require.NoError(t, err)
	assert.Equal(t, "This is what success looks like", phrase.Text)
	assert.Equal(t, ToneProfessional, phrase.Tone)
	assert.FileExists(t, video)
}

func TestService_AnalysisFailuresUseNeutralScene(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     upload.Payload
		frames   FrameExtractor
		analyzer Analyzer
	}{
		{
			name:     "invalid upload",
			file:     upload.Payload{},
			frames:   &fakeExtractor{dir: dir},
			analyzer: fakeAnalyzer{scene: Scene{SceneType: "tutorial"}},
		},
		{
			name:     "extraction failure",
			file:     upload.Payload{URL: dataURL("x")},
			frames:   &fakeExtractor{dir: dir, err: errors.New("ffmpeg exploded")},
			analyzer: fakeAnalyzer{scene: Scene{SceneType: "tutorial"}},
		},
		{
			name:     "analyzer failure",
			file:     upload.Payload{URL: dataURL("x")},
			frames:   &fakeExtractor{dir: dir},
			analyzer: fakeAnalyzer{err: errors.New("vision unavailable")},
		},
		{
			name:     "no frame extractor",
			file:     upload.Payload{URL: dataURL("x")},
			analyzer: fakeAnalyzer{scene: Scene{SceneType: "tutorial"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(upload.NewIntake(dir), tt.frames, tt.analyzer, NewTemplateGenerator(first), nil)
			phrase, err := svc.Generate(context.Background(), PhraseRequest{
				File:      tt.file,
				StartTime: 1,
				EndTime:   2,
				Theme:     ThemeCTA,
				Tone:      ToneProfessional,
			})
			require.NoError(t, err)
			assert.Equal(t, NeutralScene(), phrase.Scene)
			assert.Equal(t, "Get Started Today", phrase.Text)
		})
	}
}

func TestService_GeneratorFailureFallsBack(t *testing.T) {
	svc := NewService(nil, nil, nil, failingGenerator{}, nil)
	svc.fallback = NewTemplateGenerator(first)

	phrase, err := svc.Generate(context.Background(), PhraseRequest{
		VideoPath: "missing.mp4",
		StartTime: 0,
		EndTime:   3,
		Theme:     ThemeContextual,
		Tone:      ToneFunny,
	})
	require.NoError(t, err)
	assert.Equal(t, "Boom! Just like that", phrase.Text)
}

func TestService_InvalidRequests(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil)
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name string
		req  PhraseRequest
	}{
		{"end equals start", PhraseRequest{StartTime: 3, EndTime: 3, Theme: ThemeCTA}},
		{"end before start", PhraseRequest{StartTime: 5, EndTime: 2, Theme: ThemeCTA}},
		{"negative start", PhraseRequest{StartTime: -1, EndTime: 2, Theme: ThemeCTA}},
		{"bad theme", PhraseRequest{StartTime: 0, EndTime: 2, Theme: "banner"}},
		{"bad tone", PhraseRequest{StartTime: 0, EndTime: 2, Theme: ThemeCTA, Tone: "angry"}},
		{"long context", PhraseRequest{StartTime: 0, EndTime: 2, Theme: ThemeCTA, Context: string(long)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}
