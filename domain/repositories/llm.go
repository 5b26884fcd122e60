package repositories

import "context"

// RecommendationGenerator abstracts any text-generation provider. The system
// prompt fixes the assistant's role; the user prompt carries the device
// summary. Transient provider failures are retried inside the adapter before
// an error surfaces.
type RecommendationGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
