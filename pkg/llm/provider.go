// Package llm defines the text-generation provider contract used for city
// descriptions.
package llm

import "context"

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// GenerateText sends a prompt and returns the text response. name tags
	// the call's intent for logging and tracking.
	GenerateText(ctx context.Context, name, prompt string) (string, error)

	// GenerateJSON sends a prompt and unmarshals the response into target.
	GenerateJSON(ctx context.Context, name, prompt string, target any) error

	// HealthCheck verifies that the provider is configured.
	HealthCheck(ctx context.Context) error
}
