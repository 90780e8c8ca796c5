package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/smartkurv/pricing-service/internal/pricing"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pricing   pricing.Config  `mapstructure:"pricing"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Stores    StoresConfig    `mapstructure:"stores"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RemoteConfig holds Salling Group API client configuration
type RemoteConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Token             string        `mapstructure:"token"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// CatalogConfig holds product catalog configuration
type CatalogConfig struct {
	Path        string `mapstructure:"path"`
	BarcodePath string `mapstructure:"barcode_path"`
}

// StoresConfig holds store directory configuration
type StoresConfig struct {
	Path string `mapstructure:"path"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// ClientConfig converts the remote section into the pricing client shape,
// filling gaps from the defaults.
func (r RemoteConfig) ClientConfig() pricing.ClientConfig {
	cfg := pricing.DefaultClientConfig()
	if r.BaseURL != "" {
		cfg.BaseURL = r.BaseURL
	}
	if r.Token != "" {
		cfg.Token = r.Token
	}
	if r.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = r.RequestsPerSecond
	}
	if r.Burst > 0 {
		cfg.Burst = r.Burst
	}
	if r.DialTimeout > 0 {
		cfg.DialTimeout = r.DialTimeout
	}
	if r.RequestTimeout > 0 {
		cfg.RequestTimeout = r.RequestTimeout
	}
	return cfg
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file
	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("SMARTKURV")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Pricing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file from the usual locations
func loadEnvFile() error {
	envPaths := []string{
		".",
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Remove quotes if present
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Remote API
	v.BindEnv("remote.token", "SALLING_API_TOKEN")
	v.BindEnv("remote.base_url", "SALLING_API_BASE_URL")

	// Telemetry
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Pricing defaults
	def := pricing.DefaultConfig()
	v.SetDefault("pricing.default_radius_meters", def.DefaultRadiusMeters)
	v.SetDefault("pricing.top_results", def.TopResults)
	v.SetDefault("pricing.cache_ttl", def.CacheTTL)
	v.SetDefault("pricing.store_concurrency", def.StoreConcurrency)

	// Remote API defaults
	client := pricing.DefaultClientConfig()
	v.SetDefault("remote.base_url", client.BaseURL)
	v.SetDefault("remote.requests_per_second", client.RequestsPerSecond)
	v.SetDefault("remote.burst", client.Burst)
	v.SetDefault("remote.dial_timeout", client.DialTimeout)
	v.SetDefault("remote.request_timeout", client.RequestTimeout)

	// Catalog defaults
	v.SetDefault("catalog.path", "./data/catalog.json")
	v.SetDefault("catalog.barcode_path", "./data/barcodes.json")

	// Stores defaults
	v.SetDefault("stores.path", "")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
