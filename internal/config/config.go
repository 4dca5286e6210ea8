package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig contains the HTTP API and gRPC health listener settings
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	GRPCPort               int    `yaml:"grpc_port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Type     string `yaml:"type"`      // "postgres" or "memory"
	SeedFile string `yaml:"seed_file"` // customers and movies loaded into the memory store
}

// JWTConfig contains the shared secret used to verify auth tokens
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// RedisConfig contains the return guard backend settings
type RedisConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Addr                  string `yaml:"addr"`
	Password              string `yaml:"password"`
	DB                    int    `yaml:"db"`
	ReturnGuardTTLSeconds int    `yaml:"return_guard_ttl_seconds"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RateLimitConfig caps request throughput per process; zero disables it
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// TracingConfig contains the OTLP/HTTP exporter settings; empty endpoint disables export
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// ReconcilerConfig tunes replay of pending stock adjustments
type ReconcilerConfig struct {
	BatchSize        int `yaml:"batch_size"`
	MaxAttempts      int `yaml:"max_attempts"`
	RetryAttempts    int `yaml:"retry_attempts"`
	RetryBaseDelayMs int `yaml:"retry_base_delay_ms"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileStock string `yaml:"reconcile_stock"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
		c.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Tracing
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypePostgres
	}
	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.Redis.ReturnGuardTTLSeconds == 0 {
		c.Redis.ReturnGuardTTLSeconds = 30
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RequestsPerSecond) + 1
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "movie-rental-backend"
	}

	if c.Reconciler.BatchSize == 0 {
		c.Reconciler.BatchSize = 100
	}
	if c.Reconciler.MaxAttempts == 0 {
		c.Reconciler.MaxAttempts = 10
	}
	if c.Reconciler.RetryAttempts == 0 {
		c.Reconciler.RetryAttempts = 3
	}
	if c.Reconciler.RetryBaseDelayMs == 0 {
		c.Reconciler.RetryBaseDelayMs = 50
	}

	if c.Scheduler.ReconcileStock == "" {
		c.Scheduler.ReconcileStock = "0 */5 * * * *" // every 5 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP API address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listener address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

func (c *Config) ReturnGuardTTL() time.Duration {
	return time.Duration(c.Redis.ReturnGuardTTLSeconds) * time.Second
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Reconciler.RetryBaseDelayMs) * time.Millisecond
}
