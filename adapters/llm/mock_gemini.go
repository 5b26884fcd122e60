package llm

import (
	"context"

	"github.com/gadgetguard/aegis/domain/repositories"
)

// MockGenerator is a canned-response generator for development and tests.
type MockGenerator struct {
	// Response is returned from every Generate call.
	Response string
	// Err, when set, is returned instead of a response.
	Err error
	// Prompts records every user prompt received, in order.
	Prompts []string
}

// NewMockGenerator creates a mock generator with a fixed reply
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

var _ repositories.RecommendationGenerator = (*MockGenerator)(nil)

// Generate implements repositories.RecommendationGenerator
func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.Prompts = append(m.Prompts, userPrompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
