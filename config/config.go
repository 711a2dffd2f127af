package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Live       LiveConfig       `yaml:"live"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-related configuration. The booking limits
// apply per account on booking writes; the general limits apply per client
// address on the public surface.
type ServerConfig struct {
	Port                   int     `yaml:"port"`
	RateLimitPerSec        float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst         int     `yaml:"rate_limit_burst"`
	BookingRateLimitPerSec float64 `yaml:"booking_rate_limit_per_sec"`
	BookingRateLimitBurst  int     `yaml:"booking_rate_limit_burst"`
	CacheTTLSeconds        int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds JWT issuance settings.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// LiveConfig holds the server-push stream settings.
type LiveConfig struct {
	KeepaliveSeconds int           `yaml:"keepalive_seconds"`
	Keepalive        time.Duration `yaml:"-"` // Ignored by YAML parser
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // "json" or "console"
	Output   string `yaml:"output"` // "stdout", "stderr" or "file"
	FilePath string `yaml:"file_path"`
}

// Load reads the configuration from the given path. A .env file, when
// present, overlays secrets into the environment before the YAML is read.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.BookingRateLimitPerSec <= 0 {
		cfg.Server.BookingRateLimitPerSec = 2
	}
	if cfg.Server.BookingRateLimitBurst <= 0 {
		cfg.Server.BookingRateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 72
	}

	if cfg.Live.KeepaliveSeconds <= 0 {
		cfg.Live.KeepaliveSeconds = 25
	}
	cfg.Live.Keepalive = time.Duration(cfg.Live.KeepaliveSeconds) * time.Second
	if cfg.Live.SubscriberBuffer <= 0 {
		cfg.Live.SubscriberBuffer = 16
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
