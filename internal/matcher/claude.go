package matcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/models"
)

// ClaudeScorer scores listings using the Anthropic Claude API
type ClaudeScorer struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeScorer creates a new Claude match scorer
func NewClaudeScorer(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeScorer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set via ANTHROPIC_API_KEY, RECOVRR_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-haiku-3-5-20241022"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	scorer := &ClaudeScorer{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude match scorer initialized")

	return scorer, nil
}

// ModelName returns the configured model identifier
func (s *ClaudeScorer) ModelName() string {
	return s.config.Model
}

// Score analyzes one listing against one profile. Scoring never fails the
// pipeline: provider or parse errors produce a degraded zero-score result.
func (s *ClaudeScorer) Score(ctx context.Context, listing *models.Listing, profile *models.SearchProfile) *models.AnalysisResult {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	raw, err := s.generateCompletion(timeoutCtx, buildAnalysisPrompt(listing, profile))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("listing_id", listing.ID).
			Str("profile_id", profile.ID).
			Msg("Claude scoring call failed")
		return degradedResult(listing.ID, profile.ID, s.config.Model, err.Error())
	}

	resp, err := parseResponse(raw)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("listing_id", listing.ID).
			Str("profile_id", profile.ID).
			Msg("Claude scoring response invalid")
		return degradedResult(listing.ID, profile.ID, s.config.Model, err.Error())
	}

	s.logger.Debug().
		Str("listing_id", listing.ID).
		Str("profile_id", profile.ID).
		Float64("match_score", resp.MatchScore).
		Str("confidence", resp.Confidence).
		Dur("duration", time.Since(startTime)).
		Msg("Claude scoring completed")

	return resp.toResult(listing.ID, profile.ID, s.config.Model)
}

// generateCompletion makes one scoring call to the Claude API
func (s *ClaudeScorer) generateCompletion(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}

	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	return response.String(), nil
}
