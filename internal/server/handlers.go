package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mgpai22/subdeck/internal/creative"
	"github.com/mgpai22/subdeck/internal/session"
	"github.com/mgpai22/subdeck/internal/subtitle"
	"github.com/mgpai22/subdeck/internal/upload"
	"github.com/mgpai22/subdeck/internal/video"
)

type timelineBody struct {
	Entries []subtitle.Entry `json:"entries"`
	Source  string           `json:"source,omitempty"`
}

// buildStore loads request entries into a fresh store, assigning ids to
// entries that have none or share one
func buildStore(body timelineBody, videoDuration float64) *session.Store {
	entries := uniqueIDs(body.Entries)

	store := session.NewStore()
	store.SetVideoDuration(videoDuration)
	store.SetTimeline(&subtitle.Timeline{Entries: []subtitle.Entry{}, TotalDuration: videoDuration, Source: body.Source})
	for _, e := range entries {
		e.Styling = e.Styling.Normalize()
		e.Refresh()
		store.AddEntry(e)
	}
	return store
}

// uniqueIDs copies the posted entries, giving a new id to every entry whose id
// is missing or repeats an earlier one. New ids never collide with posted ids.
func uniqueIDs(posted []subtitle.Entry) []subtitle.Entry {
	entries := make([]subtitle.Entry, len(posted))
	copy(entries, posted)

	known := &subtitle.Timeline{}
	seen := make(map[string]bool, len(entries))
	var renumber []int
	for i, e := range entries {
		if e.ID == "" || seen[e.ID] {
			renumber = append(renumber, i)
			continue
		}
		seen[e.ID] = true
		known.Entries = append(known.Entries, e)
	}

	for _, i := range renumber {
		entries[i].ID = known.NewID()
		known.Entries = append(known.Entries, entries[i])
	}
	return entries
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: s.now()})
}

type saveRequest struct {
	File          upload.Payload `json:"file"`
	Subtitles     timelineBody   `json:"subtitles"`
	VideoDuration float64        `json:"videoDuration,omitempty"`
}

type validationFailure struct {
	Error         string                          `json:"error"`
	InvalidChunks []string                        `json:"invalidChunks"`
	Errors        map[string][]subtitle.Violation `json:"errors"`
}

// handleSave burns the posted subtitles into the posted video and streams the
// result back as an mp4 download. With ?validate=true an invalid timeline is
// rejected before rendering.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.File == (upload.Payload{}) {
		writeError(w, http.StatusUnprocessableEntity, "The file field is required.")
		return
	}
	if len(req.Subtitles.Entries) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "The subtitles.entries field is required.")
		return
	}

	s.log.Infow("Processing video with subtitles", "subtitle_count", len(req.Subtitles.Entries))

	videoPath, err := s.deps.Intake.Save(req.File)
	if err != nil {
		if errors.Is(err, upload.ErrInvalidUpload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Errorw("Video upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Video processing failed: "+err.Error())
		return
	}
	defer os.Remove(videoPath)

	store := buildStore(req.Subtitles, req.VideoDuration)

	if r.URL.Query().Get("validate") == "true" {
		duration := req.VideoDuration
		if duration <= 0 && s.deps.Prober != nil {
			if duration, err = s.deps.Prober.Duration(r.Context(), videoPath); err != nil {
				s.log.Errorw("Video probe failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Video processing failed: "+err.Error())
				return
			}
		}
		if duration <= 0 {
			writeError(w, http.StatusBadRequest, "videoDuration is required to validate subtitles")
			return
		}

		store.SetVideoDuration(duration)
		if report := store.ValidateAll(); !report.IsValid {
			writeJSON(w, http.StatusUnprocessableEntity, validationFailure{
				Error:         report.Err().Error(),
				InvalidChunks: report.InvalidChunkIDs,
				Errors:        report.ErrorsByChunkID,
			})
			return
		}
	}

	outputPath, err := s.deps.Renderer.Render(r.Context(), videoPath, video.CuesFromTimeline(store.Timeline()))
	if err != nil {
		s.log.Errorw("Video processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Video processing failed: "+err.Error())
		return
	}
	defer os.Remove(outputPath)

	s.sendVideo(w, outputPath)
}

// streams the rendered file as an attachment
func (s *Server) sendVideo(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Video processing failed: output file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		writeError(w, http.StatusInternalServerError, "Video processing failed: output file is empty")
		return
	}

	filename := fmt.Sprintf("subtitled_video_%s.mp4", s.now().Format("2006-01-02_15-04-05"))
	s.log.Infow("Preparing video download", "file_size", info.Size(), "filename", filename)

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(info.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.log.Warnw("Video download interrupted", "error", err)
	}
}

type generateRequest struct {
	File      upload.Payload `json:"file"`
	StartTime *float64       `json:"startTime"`
	EndTime   *float64       `json:"endTime"`
	TextTheme string         `json:"textTheme"`
	Context   string         `json:"context"`
	Style     string         `json:"style"`
	Language  string         `json:"language"`
}

type generateFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type generateResponse struct {
	Success  bool             `json:"success"`
	Text     string           `json:"text"`
	Metadata generateMetadata `json:"metadata"`
}

type generateMetadata struct {
	TextTheme   creative.Theme `json:"textTheme"`
	Style       creative.Tone  `json:"style"`
	StartTime   float64        `json:"startTime"`
	EndTime     float64        `json:"endTime"`
	Duration    float64        `json:"duration"`
	Scene       creative.Scene `json:"scene"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Phrases == nil {
		writeError(w, http.StatusServiceUnavailable, "phrase generation is not configured")
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	s.log.Infow("Creativity API request",
		"has_video", req.File != (upload.Payload{}),
		"startTime", req.StartTime,
		"endTime", req.EndTime,
		"textTheme", req.TextTheme,
		"style", req.Style,
	)

	unprocessable := func(msg string) {
		writeJSON(w, http.StatusUnprocessableEntity, generateFailure{Error: msg})
	}
	switch {
	case req.File == (upload.Payload{}):
		unprocessable("The file field is required.")
		return
	case req.StartTime == nil:
		unprocessable("The startTime field is required.")
		return
	case req.EndTime == nil:
		unprocessable("The endTime field is required.")
		return
	case req.TextTheme == "":
		unprocessable("The textTheme field is required.")
		return
	}

	phrase, err := s.deps.Phrases.Generate(r.Context(), creative.PhraseRequest{
		File:      req.File,
		StartTime: *req.StartTime,
		EndTime:   *req.EndTime,
		Theme:     creative.Theme(req.TextTheme),
		Tone:      creative.Tone(req.Style),
		Context:   req.Context,
		Language:  req.Language,
	})
	if err != nil {
		if errors.Is(err, creative.ErrInvalidRequest) {
			unprocessable(err.Error())
			return
		}
		s.log.Errorw("Creative text generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, generateFailure{
			Error: "Failed to generate creative text: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Text:    phrase.Text,
		Metadata: generateMetadata{
			TextTheme:   phrase.Theme,
			Style:       phrase.Tone,
			StartTime:   phrase.StartTime,
			EndTime:     phrase.EndTime,
			Duration:    phrase.Duration,
			Scene:       phrase.Scene,
			GeneratedAt: phrase.GeneratedAt,
		},
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, creative.Catalog())
}

type parseRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Strict bool   `json:"strict"`
}

type lineIssue struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

type parseFailure struct {
	Error  string      `json:"error"`
	Issues []lineIssue `json:"issues"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if !req.Strict {
		writeJSON(w, http.StatusOK, subtitle.ParseText(req.Text, req.Source))
		return
	}

	tl, err := subtitle.ParseTextStrict(req.Text, req.Source)
	if err != nil {
		failure := parseFailure{Error: err.Error(), Issues: []lineIssue{}}
		var perr *subtitle.ParseError
		if errors.As(err, &perr) {
			for _, i := range perr.Issues {
				failure.Issues = append(failure.Issues, lineIssue{Line: i.Line, Content: i.Content, Reason: i.Reason})
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, failure)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

type validateRequest struct {
	Timeline      timelineBody `json:"timeline"`
	VideoDuration float64      `json:"videoDuration"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.VideoDuration < 0 {
		writeError(w, http.StatusBadRequest, "videoDuration must not be negative")
		return
	}

	store := buildStore(req.Timeline, req.VideoDuration)
	writeJSON(w, http.StatusOK, store.ValidateAll())
}

type exportRequest struct {
	Timeline timelineBody `json:"timeline"`
	Format   string       `json:"format"`
}

var exportContentTypes = map[subtitle.Format]string{
	subtitle.FormatText: "text/plain; charset=utf-8",
	subtitle.FormatSRT:  "application/x-subrip; charset=utf-8",
	subtitle.FormatVTT:  "text/vtt; charset=utf-8",
	subtitle.FormatASS:  "text/x-ssa; charset=utf-8",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	format, err := subtitle.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store := buildStore(req.Timeline, 0)
	var buf bytes.Buffer
	if err := subtitle.Export(store.Timeline(), format, &buf); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
