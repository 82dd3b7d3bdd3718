package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fluxai/flux-gateway/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete gateway-core configuration
type Config struct {
	Server     models.ServerConfig     `yaml:"server"`
	Cache      models.CacheConfig      `yaml:"cache"`
	Embeddings models.EmbeddingsConfig `yaml:"embeddings"`
	Pricing    models.PricingConfig    `yaml:"pricing"`
	Database   *models.DatabaseConfig  `yaml:"database,omitempty"`
}

// Default returns a Config populated with every section's defaults
func Default() *Config {
	return &Config{
		Server: models.ServerConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Cache:      models.DefaultCacheConfig(),
		Embeddings: models.DefaultEmbeddingsConfig(),
		Pricing:    models.DefaultPricingConfig(),
	}
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	// Validate and clean the file path to prevent directory traversal
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	config := Default()
	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	return config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fmt.Printf("Loaded environment variables from %s\n", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// applyDefaults fills in zero values that YAML unmarshalling may have left
// behind for partially specified sections
func (c *Config) applyDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = models.CacheBackendRedis
	}
	if c.Cache.SimilarityThreshold == 0 {
		c.Cache.SimilarityThreshold = models.DefaultSimilarityThreshold
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = models.DefaultCacheTTLSeconds
	}
	if c.Cache.MaxCandidates == 0 {
		c.Cache.MaxCandidates = models.DefaultMaxCandidates
	}
	if c.Cache.Backend == models.CacheBackendMemory && c.Cache.Capacity == 0 {
		c.Cache.Capacity = models.DefaultMemoryCapacity
	}
	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "openai"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = models.DefaultEmbeddingModel
	}
	if c.Embeddings.Dimension == 0 {
		c.Embeddings.Dimension = models.DefaultEmbeddingDimension
	}
	if c.Embeddings.MaxRetries == 0 {
		c.Embeddings.MaxRetries = models.DefaultEmbeddingRetries
	}
	if c.Embeddings.RetryBaseDelayMs == 0 {
		c.Embeddings.RetryBaseDelayMs = models.DefaultRetryBaseDelayMs
	}
	if c.Pricing.Region == "" {
		c.Pricing.Region = models.DefaultPricingRegion
	}
	if c.Pricing.DefaultModel == "" {
		c.Pricing.DefaultModel = models.DefaultFallbackModel
	}
	if c.Pricing.EmbeddingModel == "" {
		c.Pricing.EmbeddingModel = models.DefaultEmbeddingCostModel
	}
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	// Pattern matches ${VAR_NAME} or ${VAR_NAME:-default_value}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		submatches := re.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks if all required configuration values are set and coherent
func (c *Config) Validate() error {
	var missing []string

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case models.CacheBackendRedis:
			if c.Cache.RedisURL == "" {
				missing = append(missing, "cache.redis_url")
			}
		case models.CacheBackendMemory:
			// capacity defaulted in applyDefaults
		default:
			return fmt.Errorf("unsupported cache backend: %s (supported: redis, memory)", c.Cache.Backend)
		}

		if c.Cache.SimilarityThreshold < 0 || c.Cache.SimilarityThreshold > 1 {
			return fmt.Errorf("invalid similarity threshold %.4f; must be in [0.0, 1.0]", c.Cache.SimilarityThreshold)
		}
	}

	if c.Cache.Enabled && c.Cache.SemanticEnabled {
		if c.Embeddings.APIKey == "" {
			missing = append(missing, "embeddings.api_key")
		}
		if c.Embeddings.Dimension <= 0 {
			missing = append(missing, "embeddings.dimension")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
