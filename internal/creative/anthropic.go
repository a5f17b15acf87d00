package creative

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Generator using Anthropic Messages
type AnthropicGenerator struct {
	client   anthropic.Client
	model    anthropic.Model
	fallback *TemplateGenerator
}

func NewAnthropicGenerator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	model := anthropic.Model(opts.Model)
	if model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicGenerator{
		client:   client,
		model:    model,
		fallback: NewTemplateGenerator(opts.Picker),
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	message, err := g.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     g.model,
			MaxTokens: 256,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(BuildPrompt(req)),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("phrase generation failed: %w", err)
	}
	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	return orFallback(responseText, g.fallback, req), nil
}
