// Package config provides configuration management for Recall. Settings come
// from three layers: built-in defaults, an optional YAML file, and
// environment variables with the RECALL_ prefix. Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Recall service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Engine   EngineConfig   `yaml:"engine"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host              string        `yaml:"host"`                // Bind address (default: 127.0.0.1)
	Port              int           `yaml:"port"`                // Server port (default: 8484)
	RequestsPerMinute int           `yaml:"requests_per_minute"` // HTTP request budget, one bucket shared by all clients; 0 disables
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // Graceful shutdown window (default: 10s)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine          string  `yaml:"engine"`            // Storage engine: sqlite, postgres (default: sqlite)
	DataPath        string  `yaml:"data_path"`         // SQLite data directory (default: ./data)
	PostgresDSN     string  `yaml:"postgres_dsn"`      // Postgres connection string
	MergeThreshold  float64 `yaml:"merge_threshold"`   // Confidence ratio below which conflicting writes are discarded
	MergeDecayFloor float64 `yaml:"merge_decay_floor"` // Minimum decay after a merge refreshes a memory
}

// LLMConfig contains model provider configuration.
type LLMConfig struct {
	Provider          string        `yaml:"provider"`            // ollama, openai, anthropic, gemini (default: ollama)
	BaseURL           string        `yaml:"base_url"`            // Provider endpoint override
	APIKey            string        `yaml:"api_key"`             // Provider API key
	Model             string        `yaml:"model"`               // Model name override
	Timeout           time.Duration `yaml:"timeout"`             // Per-request timeout (default: 60s)
	RequestsPerMinute int           `yaml:"requests_per_minute"` // Outbound model call budget; 0 disables
}

// EngineConfig tunes the memory lifecycle engine.
type EngineConfig struct {
	ConfidenceFloor     float64 `yaml:"confidence_floor"`
	RetrievalCutoff     float64 `yaml:"retrieval_cutoff"`
	DecayBase           float64 `yaml:"decay_base"`
	DecayHorizon        float64 `yaml:"decay_horizon"`
	DecayFloor          float64 `yaml:"decay_floor"`
	KeyMatchBonus       float64 `yaml:"key_match_bonus"`
	TopK                int     `yaml:"top_k"`
	FetchLimit          int     `yaml:"fetch_limit"`
	ExtractionCacheSize int     `yaml:"extraction_cache_size"` // 0 = default capacity, negative disables
	ModelIntentFallback bool    `yaml:"model_intent_fallback"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	Mode     string `yaml:"mode"`      // development, production (default: development)
	APIToken string `yaml:"api_token"` // Bearer token; required in production mode
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then RECALL_ environment variables.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from defaults and environment
// variables only, honoring RECALL_CONFIG_FILE if set.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("RECALL_CONFIG_FILE"))
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8484,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Engine:          "sqlite",
			DataPath:        "./data",
			MergeThreshold:  0.8,
			MergeDecayFloor: 0.5,
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Timeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			Mode: "development",
		},
	}
}

func (c *Config) applyEnv() {
	setEnvString(&c.Server.Host, "RECALL_HOST")
	setEnvInt(&c.Server.Port, "RECALL_PORT")
	setEnvInt(&c.Server.RequestsPerMinute, "RECALL_HTTP_RATE_LIMIT")
	setEnvDuration(&c.Server.ShutdownTimeout, "RECALL_SHUTDOWN_TIMEOUT")

	setEnvString(&c.Storage.Engine, "RECALL_STORAGE_ENGINE")
	setEnvString(&c.Storage.DataPath, "RECALL_DATA_PATH")
	setEnvString(&c.Storage.PostgresDSN, "RECALL_POSTGRES_DSN")
	setEnvFloat(&c.Storage.MergeThreshold, "RECALL_MERGE_THRESHOLD")
	setEnvFloat(&c.Storage.MergeDecayFloor, "RECALL_MERGE_DECAY_FLOOR")

	setEnvString(&c.LLM.Provider, "RECALL_LLM_PROVIDER")
	setEnvString(&c.LLM.BaseURL, "RECALL_LLM_BASE_URL")
	setEnvString(&c.LLM.APIKey, "RECALL_LLM_API_KEY")
	setEnvString(&c.LLM.Model, "RECALL_LLM_MODEL")
	setEnvDuration(&c.LLM.Timeout, "RECALL_LLM_TIMEOUT")
	setEnvInt(&c.LLM.RequestsPerMinute, "RECALL_LLM_RATE_LIMIT")

	setEnvFloat(&c.Engine.ConfidenceFloor, "RECALL_CONFIDENCE_FLOOR")
	setEnvFloat(&c.Engine.RetrievalCutoff, "RECALL_RETRIEVAL_CUTOFF")
	setEnvFloat(&c.Engine.DecayBase, "RECALL_DECAY_BASE")
	setEnvFloat(&c.Engine.DecayHorizon, "RECALL_DECAY_HORIZON")
	setEnvFloat(&c.Engine.DecayFloor, "RECALL_DECAY_FLOOR")
	setEnvFloat(&c.Engine.KeyMatchBonus, "RECALL_KEY_MATCH_BONUS")
	setEnvInt(&c.Engine.TopK, "RECALL_TOP_K")
	setEnvInt(&c.Engine.FetchLimit, "RECALL_FETCH_LIMIT")
	setEnvInt(&c.Engine.ExtractionCacheSize, "RECALL_EXTRACTION_CACHE_SIZE")
	setEnvBool(&c.Engine.ModelIntentFallback, "RECALL_MODEL_INTENT_FALLBACK")

	setEnvString(&c.Security.Mode, "RECALL_SECURITY_MODE")
	setEnvString(&c.Security.APIToken, "RECALL_API_TOKEN")
}

func (c *Config) validate() error {
	switch c.Storage.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown storage engine %q", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: postgres engine requires a DSN")
	}
	if c.Security.Mode == "production" && c.Security.APIToken == "" {
		return fmt.Errorf("config: production mode requires an API token")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}

func setEnvString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setEnvInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func setEnvFloat(dst *float64, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = parsed
		}
	}
}

func setEnvDuration(dst *time.Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			*dst = parsed
		}
	}
}

func setEnvBool(dst *bool, key string) {
	switch os.Getenv(key) {
	case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
		*dst = true
	case "false", "0", "no", "False", "FALSE", "No", "NO":
		*dst = false
	}
}
