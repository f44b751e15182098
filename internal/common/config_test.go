package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 30, config.Monitor.ScrapeIntervalMinutes)
	assert.Equal(t, 3, config.Monitor.MaxConcurrentScrapers)
	assert.Equal(t, 7.0, config.Monitor.MatchThreshold)
	assert.Equal(t, 8.0, config.Monitor.SMSThreshold)
	assert.Equal(t, []string{"ebay", "facebook"}, config.Scrapers.Enabled)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFile_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recovrr.toml")

	content := `environment = "production"

[monitor]
scrape_interval_minutes = 15
match_threshold = 6.5

[scrapers]
enabled = ["ebay"]

[llm]
default_provider = "claude"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, 15, config.Monitor.ScrapeIntervalMinutes)
	assert.Equal(t, 15*time.Minute, config.ScrapeInterval())
	assert.Equal(t, 6.5, config.Monitor.MatchThreshold)
	assert.Equal(t, []string{"ebay"}, config.Scrapers.Enabled)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)

	// Untouched sections keep their defaults
	assert.Equal(t, 3, config.Monitor.MaxConcurrentScrapers)
	assert.Equal(t, 587, config.SMTP.Port)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/recovrr.toml")
	require.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("RECOVRR_SCRAPE_INTERVAL_MINUTES", "5")
	t.Setenv("RECOVRR_LLM_DEFAULT_PROVIDER", "claude")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 5, config.Monitor.ScrapeIntervalMinutes)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.Equal(t, "sk-test", config.Claude.APIKey)
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()
	config.Monitor.MaxConcurrentScrapers = 0
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Monitor.MatchThreshold = 10.5
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.LLM.DefaultProvider = "openai"
	assert.Error(t, config.Validate())
}

func TestScrapeInterval_FloorsInvalidValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Monitor.ScrapeIntervalMinutes = 0
	assert.Equal(t, 30*time.Minute, config.ScrapeInterval())
}
