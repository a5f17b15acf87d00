package creative

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/mgpai22/subdeck/internal/logging"
	"github.com/mgpai22/subdeck/internal/upload"
)

// longest accepted free-form context, in characters
const maxContextLength = 500

// FrameExtractor writes a still of a video at the given second.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, at float64) (string, error)
}

// PhraseRequest asks for a phrase over the [StartTime, EndTime] range of a
// video given either as an upload payload or a local path.
type PhraseRequest struct {
	File      upload.Payload
	VideoPath string
	StartTime float64
	EndTime   float64
	Theme     Theme
	Tone      Tone
	Context   string
	Language  string
}

// Phrase is a generated phrase and the request it answers.
type Phrase struct {
	Text        string    `json:"text"`
	Theme       Theme     `json:"textTheme"`
	Tone        Tone      `json:"style"`
	StartTime   float64   `json:"startTime"`
	EndTime     float64   `json:"endTime"`
	Duration    float64   `json:"duration"`
	Scene       Scene     `json:"scene"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Service turns a video range into a phrase: it saves the upload, extracts
// the frame at the midpoint, analyzes it and generates text for the scene.
type Service struct {
	intake    *upload.Intake
	frames    FrameExtractor
	analyzer  Analyzer
	generator Generator
	fallback  *TemplateGenerator
	logger    *logging.Logger
	now       func() time.Time
}

func NewService(
	intake *upload.Intake,
	frames FrameExtractor,
	analyzer Analyzer,
	generator Generator,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	if analyzer == nil {
		analyzer = NewMockAnalyzer(nil)
	}
	fallback := NewTemplateGenerator(nil)
	if generator == nil {
		generator = fallback
	}
	return &Service{
		intake:    intake,
		frames:    frames,
		analyzer:  analyzer,
		generator: generator,
		fallback:  fallback,
		logger:    logger,
		now:       time.Now,
	}
}

// Validate checks the time range and context length.
func (r PhraseRequest) Validate() error {
	if r.StartTime < 0 || r.EndTime < 0 {
		return fmt.Errorf("%w: times must not be negative", ErrInvalidRequest)
	}
	if r.EndTime <= r.StartTime {
		return fmt.Errorf("%w: End time must be greater than start time", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(r.Context) > maxContextLength {
		return fmt.Errorf("%w: context must be at most %d characters", ErrInvalidRequest, maxContextLength)
	}
	if _, err := ParseTheme(string(r.Theme)); err != nil {
		return err
	}
	if _, err := ParseTone(string(r.Tone)); err != nil {
		return err
	}
	return nil
}

// Generate validates the request, analyzes the video and writes a phrase.
// Analysis failures never fail the request; the neutral scene is used instead.
func (s *Service) Generate(ctx context.Context, req PhraseRequest) (*Phrase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tone, _ := ParseTone(string(req.Tone))
	theme, _ := ParseTheme(string(req.Theme))

	s.logger.Infow("Generating phrase",
		"theme", theme,
		"style", tone,
		"start", req.StartTime,
		"end", req.EndTime,
	)

	scene := s.analyze(ctx, req)

	genReq := Request{
		Scene:    scene,
		Theme:    theme,
		Tone:     tone,
		Context:  req.Context,
		Language: req.Language,
	}
	text, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warnw("Phrase generation failed, using templates", "error", err)
		text = s.fallback.Phrase(genReq)
	}

	return &Phrase{
		Text:        text,
		Theme:       theme,
		Tone:        tone,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Duration:    req.EndTime - req.StartTime,
		Scene:       scene,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// scene at the midpoint of the range, or the neutral scene on any failure
func (s *Service) analyze(ctx context.Context, req PhraseRequest) Scene {
	videoPath := req.VideoPath
	if videoPath == "" {
		if s.intake == nil {
			s.logger.Warnw("Video analysis skipped: no upload intake")
			return NeutralScene()
		}
		saved, err := s.intake.Save(req.File)
		if err != nil {
			s.logger.Warnw("Video analysis failed", "stage", "upload", "error", err)
			return NeutralScene()
		}
		defer os.Remove(saved)
		videoPath = saved
	}

	if s.frames == nil {
		s.logger.Warnw("Video analysis skipped: no frame extractor")
		return NeutralScene()
	}

	framePath, err := s.frames.ExtractFrame(ctx, videoPath, (req.StartTime+req.EndTime)/2)
	if err != nil {
		s.logger.Warnw("Video analysis failed", "stage", "frame", "error", err)
		return NeutralScene()
	}
	defer os.Remove(framePath)

	scene, err := s.analyzer.Analyze(ctx, framePath)
	if err != nil {
		s.logger.Warnw("Video analysis failed", "stage", "analyze", "error", err)
		return NeutralScene()
	}

	s.logger.Debugw("Analyzed frame", "scene", scene.SceneType, "mood", scene.Mood)
	return scene
}
