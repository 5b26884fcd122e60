package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/gadgetguard/aegis/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTimeoutSeconds = 60
	maxAttempts           = 3
)

// GeminiGenerator implements the RecommendationGenerator interface using
// Google's Gemini API. Transient failures are retried up to maxAttempts
// before an error surfaces to the caller.
type GeminiGenerator struct {
	client         *genai.Client
	logger         *zap.Logger
	model          string
	timeoutSeconds int
}

// GeminiConfig carries the generator settings. Zero values fall back to
// defaults.
type GeminiConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// NewGeminiGenerator creates a new Gemini-backed generator
func NewGeminiGenerator(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiGenerator{
		client:         client,
		logger:         logger,
		model:          model,
		timeoutSeconds: timeoutSeconds,
	}, nil
}

var _ repositories.RecommendationGenerator = (*GeminiGenerator)(nil)

// Generate sends the prompt pair to Gemini and returns the reply text.
func (g *GeminiGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.timeoutSeconds)*time.Second)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate recommendation: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	g.logger.Info("Recommendation generated",
		zap.Int("prompt_length", len(userPrompt)),
		zap.Int("response_length", len(text)))

	return text, nil
}
