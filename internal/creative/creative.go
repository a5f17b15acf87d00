package creative

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrInvalidRequest marks phrase requests that fail input validation.
var ErrInvalidRequest = errors.New("invalid phrase request")

// Scene is the visual analysis of a single video frame.
type Scene struct {
	SceneType     string   `json:"scene_type"`
	Mood          string   `json:"mood"`
	Objects       []string `json:"objects"`
	Colors        []string `json:"colors"`
	ActivityLevel string   `json:"activity_level"`
}

// NeutralScene is used whenever a frame cannot be analyzed.
func NeutralScene() Scene {
	return Scene{
		SceneType:     "general",
		Mood:          "neutral",
		Objects:       []string{},
		Colors:        []string{"neutral"},
		ActivityLevel: "medium",
	}
}

// kind of phrase to generate
type Theme string

const (
	ThemeContextual Theme = "contextual"
	ThemeCTA        Theme = "cta"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeContextual, ThemeCTA:
		return t, nil
	default:
		return "", fmt.Errorf("%w: text theme must be one of contextual, cta; got %q", ErrInvalidRequest, s)
	}
}

// writing style of a phrase
type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneCasual        Tone = "casual"
	ToneFunny         Tone = "funny"
	ToneInspirational Tone = "inspirational"
	ToneTechnical     Tone = "technical"
)

// ParseTone accepts the five known tones. An empty string means professional.
func ParseTone(s string) (Tone, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ToneProfessional, nil
	}
	switch t := Tone(s); t {
	case ToneProfessional, ToneCasual, ToneFunny, ToneInspirational, ToneTechnical:
		return t, nil
	default:
		return "", fmt.Errorf(
			"%w: style must be one of professional, casual, funny, inspirational, technical; got %q",
			ErrInvalidRequest, s,
		)
	}
}

// Request is everything a Generator needs to write one phrase.
type Request struct {
	Scene    Scene
	Theme    Theme
	Tone     Tone
	Context  string
	Language string // empty means English
}

// interface for phrase generation
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Picker returns an index in [0, n). Tests inject a deterministic one.
type Picker func(n int) int

// RandomPicker picks uniformly at random.
func RandomPicker(n int) int {
	return rand.IntN(n)
}

// phrase generation backend
type Provider string

const (
	ProviderTemplate  Provider = "template"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

type Options struct {
	Model   string
	BaseURL string // ollama only
	Picker  Picker
}

// creates a Generator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Generator, error) {
	switch provider {
	case ProviderTemplate, "":
		return NewTemplateGenerator(opts.Picker), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIGenerator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicGenerator(ctx, apiKey, opts)
	case ProviderOllama:
		return NewOllamaGenerator(opts)
	default:
		return nil, fmt.Errorf("unsupported creative provider: %s", provider)
	}
}
