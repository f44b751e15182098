package matcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/models"
)

// GeminiScorer scores listings using the Google Gemini API
type GeminiScorer struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// NewGeminiScorer creates a new Gemini match scorer
func NewGeminiScorer(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiScorer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set via GEMINI_API_KEY, RECOVRR_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	scorer := &GeminiScorer{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Msg("Gemini match scorer initialized")

	return scorer, nil
}

// ModelName returns the configured model identifier
func (s *GeminiScorer) ModelName() string {
	return s.config.Model
}

// Score analyzes one listing against one profile. Scoring never fails the
// pipeline: provider or parse errors produce a degraded zero-score result.
func (s *GeminiScorer) Score(ctx context.Context, listing *models.Listing, profile *models.SearchProfile) *models.AnalysisResult {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	raw, err := s.generateCompletion(timeoutCtx, buildAnalysisPrompt(listing, profile))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("listing_id", listing.ID).
			Str("profile_id", profile.ID).
			Msg("Gemini scoring call failed")
		return degradedResult(listing.ID, profile.ID, s.config.Model, err.Error())
	}

	resp, err := parseResponse(raw)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("listing_id", listing.ID).
			Str("profile_id", profile.ID).
			Msg("Gemini scoring response invalid")
		return degradedResult(listing.ID, profile.ID, s.config.Model, err.Error())
	}

	s.logger.Debug().
		Str("listing_id", listing.ID).
		Str("profile_id", profile.ID).
		Float64("match_score", resp.MatchScore).
		Str("confidence", resp.Confidence).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini scoring completed")

	return resp.toResult(listing.ID, profile.ID, s.config.Model)
}

// generateCompletion makes one scoring call to the Gemini API
func (s *GeminiScorer) generateCompletion(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(s.config.Temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Gemini API")
	}

	return response.String(), nil
}
