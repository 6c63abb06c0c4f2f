package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/medesk/helpdesk-api/pkg/messaging/redis"
	"github.com/medesk/helpdesk-api/pkg/worker"
)

type ServerConfig struct {
	Port           int           `yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" envconfig:"SERVER_MAX_HEADER_BYTES"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"DB_HOST"`
	Port     int    `yaml:"port" envconfig:"DB_PORT"`
	User     string `yaml:"user" envconfig:"DB_USER"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name     string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
}

type JWTConfig struct {
	Secret             string `yaml:"secret" envconfig:"JWT_SECRET"`
	RefreshSecret      string `yaml:"refresh_secret" envconfig:"JWT_REFRESH_SECRET"`
	ExpiryHours        int    `yaml:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
	RefreshExpiryHours int    `yaml:"refresh_expiry_hours" envconfig:"JWT_REFRESH_EXPIRY_HOURS"`
}

type RedisConfig struct {
	URL          string        `yaml:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"REDIS_MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF"`
	PoolSize     int           `yaml:"pool_size" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"SMTP_ENABLED"`
	Host     string `yaml:"host" envconfig:"SMTP_HOST"`
	Port     int    `yaml:"port" envconfig:"SMTP_PORT"`
	Username string `yaml:"username" envconfig:"SMTP_USERNAME"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD"`
	From     string `yaml:"from" envconfig:"SMTP_FROM"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"SECURITY_ALLOWED_ORIGINS"`
	AllowedMethods []string `yaml:"allowed_methods" envconfig:"SECURITY_ALLOWED_METHODS"`
	AllowedHeaders []string `yaml:"allowed_headers" envconfig:"SECURITY_ALLOWED_HEADERS"`
	BcryptCost     int      `yaml:"bcrypt_cost" envconfig:"SECURITY_BCRYPT_COST"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled" envconfig:"MONITORING_PROMETHEUS_ENABLED"`
	MetricsPath       string `yaml:"metrics_path" envconfig:"MONITORING_METRICS_PATH"`
}

type OutboxConfig struct {
	BatchSize     int           `yaml:"batch_size" envconfig:"OUTBOX_BATCH_SIZE"`
	PollInterval  time.Duration `yaml:"poll_interval" envconfig:"OUTBOX_POLL_INTERVAL"`
	RetryAttempts int           `yaml:"retry_attempts" envconfig:"OUTBOX_RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"OUTBOX_RETRY_DELAY"`
}

// SeedConfig controls the seed CLI and the destructive reset endpoint.
type SeedConfig struct {
	AdminPassword string `yaml:"admin_password" envconfig:"SEED_ADMIN_PASSWORD"`
	AllowReset    bool   `yaml:"allow_reset" envconfig:"SEED_ALLOW_RESET"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Redis      RedisConfig      `yaml:"redis"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Security   SecurityConfig   `yaml:"security"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Outbox     OutboxConfig     `yaml:"outbox"`
	Seed       SeedConfig       `yaml:"seed"`
}

// LoadConfig reads config.yml then applies environment overrides. A missing
// config file is not fatal: a container may run on env vars alone.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	config := defaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if config.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if config.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt refresh secret is required")
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "helpdesk",
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			ExpiryHours:        24,
			RefreshExpiryHours: 24 * 7,
		},
		Redis: RedisConfig{
			URL:          "redis://localhost:6379",
			MaxRetries:   3,
			RetryBackoff: time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			BcryptCost:     bcrypt.DefaultCost,
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: true,
			MetricsPath:       "/metrics",
		},
		Outbox: OutboxConfig{
			BatchSize:     50,
			PollInterval:  5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
	}
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
