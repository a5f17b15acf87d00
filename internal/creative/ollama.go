package creative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// implements Generator using a local Ollama server
type OllamaGenerator struct {
	http     *resty.Client
	model    string
	fallback *TemplateGenerator
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

type ollamaError struct {
	Error string `json:"error"`
}

func NewOllamaGenerator(opts Options) (*OllamaGenerator, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(2*time.Minute).
		SetHeader("Content-Type", "application/json")

	return &OllamaGenerator{
		http:     client,
		model:    model,
		fallback: NewTemplateGenerator(opts.Picker),
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, req Request) (string, error) {
	var out ollamaResponse
	var apiErr ollamaError

	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(ollamaRequest{Model: g.model, Prompt: BuildPrompt(req)}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("phrase generation failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("phrase generation failed: ollama: %s", apiErr.Error)
		}
		return "", fmt.Errorf("phrase generation failed: ollama returned %s", resp.Status())
	}

	return orFallback(out.Response, g.fallback, req), nil
}
