package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Vendors  []VendorConfig `mapstructure:"vendors"`
}

// VendorConfig is one deployment-specific vendor rule for the filename
// heuristics. Entries with an unknown type or category are rejected at load.
type VendorConfig struct {
	Substring string `mapstructure:"substring"`
	Issuer    string `mapstructure:"issuer"`
	Type      string `mapstructure:"type"`
	Category  string `mapstructure:"category"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// DatabaseConfig holds local SQLite configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OpenAIConfig holds the AI extraction backend configuration. An empty API
// key is valid: the service then falls back to filename heuristics.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OCRConfig holds the optional OCR pre-processing service configuration
type OCRConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Endpoint      string  `mapstructure:"endpoint"`
	APIKey        string  `mapstructure:"api_key"`
	Language      string  `mapstructure:"language"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// RatesConfig holds exchange rate provider configuration
type RatesConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	TTL      time.Duration `mapstructure:"ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MirrorConfig holds the optional remote mirror configuration
type MirrorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 60*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.max_upload_mb", 25)

	// Database defaults
	viper.SetDefault("database.path", "data/belegscan.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("openai.timeout", 60*time.Second)

	// OCR defaults
	viper.SetDefault("ocr.enabled", false)
	viper.SetDefault("ocr.language", "de")
	viper.SetDefault("ocr.min_confidence", 0.5)

	// Rates defaults
	viper.SetDefault("rates.endpoint", "https://api.exchangerate-api.com/v4")
	viper.SetDefault("rates.ttl", time.Hour)
	viper.SetDefault("rates.timeout", 10*time.Second)

	// Mirror defaults
	viper.SetDefault("mirror.enabled", false)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("ocr.api_key", "OCR_API_KEY")
	viper.BindEnv("mirror.api_key", "MIRROR_API_KEY")
	viper.BindEnv("mirror.endpoint", "MIRROR_ENDPOINT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.OCR.Enabled && c.OCR.Endpoint == "" {
		return fmt.Errorf("ocr endpoint is required when ocr is enabled")
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr min_confidence must be between 0 and 1, got %f", c.OCR.MinConfidence)
	}
	if c.Mirror.Enabled && c.Mirror.Endpoint == "" {
		return fmt.Errorf("mirror endpoint is required when mirror is enabled")
	}
	if c.Rates.Endpoint == "" {
		return fmt.Errorf("rates endpoint is required")
	}
	for i, v := range c.Vendors {
		if v.Substring == "" || v.Issuer == "" {
			return fmt.Errorf("vendor rule %d needs both substring and issuer", i)
		}
	}
	return nil
}
