package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Monitor     MonitorConfig  `toml:"monitor"`
	Scrapers    ScrapersConfig `toml:"scrapers"`
	Profiles    ProfilesConfig `toml:"profiles"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Claude      ClaudeConfig   `toml:"claude"`
	LLM         LLMConfig      `toml:"llm"`
	SMTP        SMTPConfig     `toml:"smtp"`
	Twilio      TwilioConfig   `toml:"twilio"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// MonitorConfig controls the monitoring cycle cadence and pipeline behavior
type MonitorConfig struct {
	ScrapeIntervalMinutes int     `toml:"scrape_interval_minutes"` // Minutes between monitoring cycles
	MaxConcurrentScrapers int     `toml:"max_concurrent_scrapers"` // Upper bound on simultaneous scrape tasks
	MatchThreshold        float64 `toml:"match_threshold"`         // Minimum score (0-10) that counts as a match
	SMSThreshold          float64 `toml:"sms_threshold"`           // Minimum score that additionally triggers SMS
}

// ScrapersConfig contains per-marketplace scraping configuration
type ScrapersConfig struct {
	Enabled        []string      `toml:"enabled"`         // Marketplaces to monitor (default: ebay, facebook)
	UserAgent      string        `toml:"user_agent"`      // User agent for HTTP scrapers
	RequestDelay   time.Duration `toml:"request_delay"`   // Minimum delay between requests per marketplace
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	MaxResults     int           `toml:"max_results"`     // Max listings to take per search
	Headless       bool          `toml:"headless"`        // Run browser scrapers headless
}

// ProfilesConfig contains configuration for search profile seed files
type ProfilesConfig struct {
	Dir string `toml:"dir"` // Directory containing profile seed files (YAML)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for match scoring (default: "gemini-2.5-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for match scoring (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.2)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the AI provider used for match scoring
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// SMTPConfig contains outbound email configuration for match alerts
type SMTPConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	From      string `toml:"from"`
	TLSPolicy string `toml:"tls_policy"` // "tls", "starttls", or "none"
}

// TwilioConfig contains Twilio SMS configuration for high-severity alerts
type TwilioConfig struct {
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	From       string `toml:"from"` // Sending phone number in E.164 format
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in recovrr.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Monitor: MonitorConfig{
			ScrapeIntervalMinutes: 30,  // Half-hourly cycles balance freshness against marketplace rate limits
			MaxConcurrentScrapers: 3,   // Bounded fan-out across marketplace x profile tasks
			MatchThreshold:        7.0, // Scores at or above this notify the owner
			SMSThreshold:          8.0, // Scores at or above this also page by SMS
		},
		Scrapers: ScrapersConfig{
			Enabled:        []string{"ebay", "facebook"},
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestDelay:   2 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxResults:     40,
			Headless:       true,
		},
		Profiles: ProfilesConfig{
			Dir: "./profiles",
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-2.5-flash",
			Timeout:     "2m",
			Temperature: 0.2, // Low temperature keeps scoring deterministic
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		SMTP: SMTPConfig{
			Port:      587,
			TLSPolicy: "starttls",
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones. Environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RECOVRR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("RECOVRR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("RECOVRR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RECOVRR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Monitor configuration
	if interval := os.Getenv("RECOVRR_SCRAPE_INTERVAL_MINUTES"); interval != "" {
		if m, err := strconv.Atoi(interval); err == nil && m > 0 {
			config.Monitor.ScrapeIntervalMinutes = m
		}
	}
	if concurrency := os.Getenv("RECOVRR_MAX_CONCURRENT_SCRAPERS"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Monitor.MaxConcurrentScrapers = c
		}
	}
	if threshold := os.Getenv("RECOVRR_MATCH_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Monitor.MatchThreshold = t
		}
	}
	if threshold := os.Getenv("RECOVRR_SMS_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Monitor.SMSThreshold = t
		}
	}

	// Scraper configuration
	if enabled := os.Getenv("RECOVRR_SCRAPERS_ENABLED"); enabled != "" {
		marketplaces := []string{}
		for _, m := range strings.Split(enabled, ",") {
			if trimmed := strings.TrimSpace(m); trimmed != "" {
				marketplaces = append(marketplaces, trimmed)
			}
		}
		if len(marketplaces) > 0 {
			config.Scrapers.Enabled = marketplaces
		}
	}
	if userAgent := os.Getenv("RECOVRR_SCRAPERS_USER_AGENT"); userAgent != "" {
		config.Scrapers.UserAgent = userAgent
	}
	if requestDelay := os.Getenv("RECOVRR_SCRAPERS_REQUEST_DELAY"); requestDelay != "" {
		if rd, err := time.ParseDuration(requestDelay); err == nil {
			config.Scrapers.RequestDelay = rd
		}
	}
	if requestTimeout := os.Getenv("RECOVRR_SCRAPERS_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Scrapers.RequestTimeout = rt
		}
	}
	if maxResults := os.Getenv("RECOVRR_SCRAPERS_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil && mr > 0 {
			config.Scrapers.MaxResults = mr
		}
	}
	if headless := os.Getenv("RECOVRR_SCRAPERS_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Scrapers.Headless = h
		}
	}

	// Profiles configuration
	if profilesDir := os.Getenv("RECOVRR_PROFILES_DIR"); profilesDir != "" {
		config.Profiles.Dir = profilesDir
	}

	// Gemini configuration
	if apiKey := os.Getenv("RECOVRR_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("RECOVRR_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("RECOVRR_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("RECOVRR_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("RECOVRR_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // RECOVRR_ prefix takes priority
	}
	if model := os.Getenv("RECOVRR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("RECOVRR_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("RECOVRR_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if temperature := os.Getenv("RECOVRR_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("RECOVRR_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// SMTP configuration
	if host := os.Getenv("RECOVRR_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("RECOVRR_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("RECOVRR_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("RECOVRR_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("RECOVRR_SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}
	if tlsPolicy := os.Getenv("RECOVRR_SMTP_TLS_POLICY"); tlsPolicy != "" {
		config.SMTP.TLSPolicy = tlsPolicy
	}

	// Twilio configuration
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		config.Twilio.AccountSID = sid
	}
	if sid := os.Getenv("RECOVRR_TWILIO_ACCOUNT_SID"); sid != "" {
		config.Twilio.AccountSID = sid
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		config.Twilio.AuthToken = token
	}
	if token := os.Getenv("RECOVRR_TWILIO_AUTH_TOKEN"); token != "" {
		config.Twilio.AuthToken = token
	}
	if from := os.Getenv("RECOVRR_TWILIO_FROM"); from != "" {
		config.Twilio.From = from
	}
}

// ScrapeInterval returns the monitoring cycle interval as a duration.
func (c *Config) ScrapeInterval() time.Duration {
	minutes := c.Monitor.ScrapeIntervalMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Validate checks settings that would otherwise fail deep inside a cycle.
func (c *Config) Validate() error {
	if c.Monitor.MaxConcurrentScrapers <= 0 {
		return fmt.Errorf("monitor.max_concurrent_scrapers must be positive, got %d", c.Monitor.MaxConcurrentScrapers)
	}
	if c.Monitor.MatchThreshold < 0 || c.Monitor.MatchThreshold > 10 {
		return fmt.Errorf("monitor.match_threshold must be in [0,10], got %.1f", c.Monitor.MatchThreshold)
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("llm.default_provider must be %q or %q, got %q", LLMProviderGemini, LLMProviderClaude, c.LLM.DefaultProvider)
	}
	return nil
}
