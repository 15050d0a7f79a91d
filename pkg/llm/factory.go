package llm

import (
	"fmt"

	"communityscout/pkg/config"
	"communityscout/pkg/llm/gemini"
	"communityscout/pkg/tracker"
)

// NewProvider constructs the LLM provider named by the configuration. The
// returned cleanup function releases provider resources.
func NewProvider(cfg *config.LLMConfig, t *tracker.Tracker) (Provider, func(), error) {
	switch cfg.Provider {
	case "", "gemini":
		c, err := gemini.NewClient(cfg, t)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini provider: %w", err)
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
