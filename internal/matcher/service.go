package matcher

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
)

// NewScorer creates the match scorer for the configured provider
func NewScorer(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.MatchScorer, error) {
	switch config.LLM.DefaultProvider {
	case common.LLMProviderClaude:
		return NewClaudeScorer(&config.Claude, logger)
	case common.LLMProviderGemini:
		return NewGeminiScorer(ctx, &config.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", config.LLM.DefaultProvider)
	}
}
