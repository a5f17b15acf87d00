package creative

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// interface for frame analysis
type Analyzer interface {
	Analyze(ctx context.Context, framePath string) (Scene, error)
}

// canned scenes returned by MockAnalyzer
var mockScenes = []Scene{
	{
		SceneType:     "product_demo",
		Mood:          "professional",
		Objects:       []string{"product", "hands", "background"},
		Colors:        []string{"blue", "white", "gray"},
		ActivityLevel: "low",
	},
	{
		SceneType:     "lifestyle",
		Mood:          "energetic",
		Objects:       []string{"people", "outdoor", "movement"},
		Colors:        []string{"bright", "vibrant", "natural"},
		ActivityLevel: "high",
	},
	{
		SceneType:     "tutorial",
		Mood:          "educational",
		Objects:       []string{"screen", "text", "interface"},
		Colors:        []string{"neutral", "contrast"},
		ActivityLevel: "medium",
	},
	{
		SceneType:     "testimonial",
		Mood:          "trustworthy",
		Objects:       []string{"person", "face", "background"},
		Colors:        []string{"warm", "professional"},
		ActivityLevel: "low",
	},
}

// MockAnalyzer ignores the frame and picks one of four canned scenes.
type MockAnalyzer struct {
	pick Picker
}

func NewMockAnalyzer(pick Picker) *MockAnalyzer {
	if pick == nil {
		pick = RandomPicker
	}
	return &MockAnalyzer{pick: pick}
}

func (a *MockAnalyzer) Analyze(_ context.Context, _ string) (Scene, error) {
	s := mockScenes[a.pick(len(mockScenes))]
	s.Objects = append([]string(nil), s.Objects...)
	s.Colors = append([]string(nil), s.Colors...)
	return s, nil
}

const analyzePrompt = `Describe this video frame as a JSON object with these fields:
- "scene_type": one of "product_demo", "lifestyle", "tutorial", "testimonial"
- "mood": one word
- "objects": up to five short nouns
- "colors": up to three words describing the palette
- "activity_level": one of "low", "medium", "high"
Return ONLY the JSON object.`

// implements Analyzer using Google Gemini vision
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiAnalyzer{client: client, model: model}, nil
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, framePath string) (Scene, error) {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to read frame: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(analyzePrompt),
		genai.NewPartFromBytes(data, "image/jpeg"),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return Scene{}, fmt.Errorf("frame analysis failed: %w", err)
	}

	text, err := geminiText(result)
	if err != nil {
		return Scene{}, err
	}
	return parseScene(text)
}

// NewAnalyzer builds the analyzer named by kind: "mock" or "gemini".
func NewAnalyzer(ctx context.Context, kind, apiKey, model string, pick Picker) (Analyzer, error) {
	switch kind {
	case "mock", "":
		return NewMockAnalyzer(pick), nil
	case "gemini":
		return NewGeminiAnalyzer(ctx, apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported analyzer: %s", kind)
	}
}

// parseScene decodes the first JSON object in an analysis reply. Missing
// fields are taken from the neutral scene.
func parseScene(text string) (Scene, error) {
	text = cleanJSONResponse(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return Scene{}, fmt.Errorf("no JSON object in analysis response: %s", truncateString(text, 200))
	}

	var scene Scene
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&scene); err != nil {
		return Scene{}, fmt.Errorf(
			"failed to parse analysis response: %w (response: %s)",
			err,
			truncateString(text, 200),
		)
	}

	neutral := NeutralScene()
	if scene.SceneType == "" {
		scene.SceneType = neutral.SceneType
	}
	if scene.Mood == "" {
		scene.Mood = neutral.Mood
	}
	if scene.Objects == nil {
		scene.Objects = neutral.Objects
	}
	if len(scene.Colors) == 0 {
		scene.Colors = neutral.Colors
	}
	if scene.ActivityLevel == "" {
		scene.ActivityLevel = neutral.ActivityLevel
	}
	return scene, nil
}
