package creative

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// implements Generator using Google Gemini
type GeminiGenerator struct {
	client   *genai.Client
	model    string
	fallback *TemplateGenerator
}

func NewGeminiGenerator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiGenerator{
		client:   client,
		model:    model,
		fallback: NewTemplateGenerator(opts.Picker),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(BuildPrompt(req)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("phrase generation failed: %w", err)
	}

	text, err := geminiText(result)
	if err != nil {
		return "", err
	}
	return orFallback(text, g.fallback, req), nil
}

// concatenated text parts of the first candidate that has any
func geminiText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}
	return responseText, nil
}

// cleaned LLM reply, or a template phrase when nothing usable came back
func orFallback(reply string, fallback *TemplateGenerator, req Request) string {
	if phrase := cleanPhrase(reply); phrase != "" {
		return phrase
	}
	return fallback.Phrase(req)
}
