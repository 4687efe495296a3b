package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the YAML config path.
const EnvConfigPath = "FORUM_CONFIG"

// Config is the application configuration.
type Config struct {
	HTTPAddr        string         `yaml:"httpAddr"`
	ShutdownTimeout time.Duration  `yaml:"shutdownTimeout"`
	Database        DatabaseConfig `yaml:"database"`
	Redis           RedisConfig    `yaml:"redis"`
	Session         SessionConfig  `yaml:"session"`
}

// DatabaseConfig selects the GORM dialect and its DSN.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

// RedisConfig points at the Redis instance used for token revocation.
// An empty Addr keeps revocations in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// SessionConfig controls session token signing and the session cookie.
type SessionConfig struct {
	SecretKey    string        `yaml:"secretKey"`
	Issuer       string        `yaml:"issuer"`
	TTL          time.Duration `yaml:"ttl"`
	CookieName   string        `yaml:"cookieName"`
	CookieSecure bool          `yaml:"cookieSecure"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPAddr:        ":3000",
		ShutdownTimeout: 30 * time.Second,
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "forum.db",
		},
		Session: SessionConfig{
			SecretKey:  "your-secret-key-change-in-production",
			Issuer:     "community-forum",
			TTL:        14 * 24 * time.Hour,
			CookieName: "forum_session",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
// When path is empty the FORUM_CONFIG variable is consulted.
func Load(path string) (Config, error) {
	cfg := Default()

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("FORUM_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("FORUM_DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FORUM_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("FORUM_DB_DEBUG"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("FORUM_DB_DEBUG: %w", err)
		}
		cfg.Database.Debug = b
	}
	if v := os.Getenv("FORUM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = strings.TrimSpace(v)
	}
	if v := os.Getenv("FORUM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		cfg.Session.SecretKey = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.Session.Issuer = v
	}
	if v := os.Getenv("FORUM_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("FORUM_SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}
	if v := os.Getenv("FORUM_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("FORUM_COOKIE_SECURE: %w", err)
		}
		cfg.Session.CookieSecure = b
	}
	if v := os.Getenv("FORUM_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("FORUM_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	if c.Session.SecretKey == "" {
		return errors.New("session secret key is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie name is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
