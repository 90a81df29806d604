package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	JWT         JWTConfig         `yaml:"jwt"`
	Redis       RedisConfig       `yaml:"redis"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	AccessSecret      string `yaml:"access_secret"`
	RefreshSecret     string `yaml:"refresh_secret"`
	AccessTTLMinutes  int    `yaml:"access_ttl_minutes"`
	RefreshTTLMinutes int    `yaml:"refresh_ttl_minutes"`
}

func (c *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

func (c *JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLMinutes) * time.Minute
}

// RedisConfig for the shared state store (rate limiter buckets, idempotency
// records). When disabled, the service falls back to in-process equivalents.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Capacity          float64 `yaml:"capacity"`
	RefillRate        float64 `yaml:"refill_rate"` // tokens per second
	IdleExpirySeconds int     `yaml:"idle_expiry_seconds"`
	// FailMode controls behavior when the shared store is unreachable:
	// "open" admits the request, "closed" rejects it. Empty means open.
	FailMode string `yaml:"fail_mode"`
}

func (c *RateLimitConfig) FailOpen() bool {
	return c.FailMode != "closed"
}

func (c *RateLimitConfig) IdleExpiry() time.Duration {
	return time.Duration(c.IdleExpirySeconds) * time.Second
}

type IdempotencyConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

func (c *IdempotencyConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "authgate.db",
		},
		JWT: JWTConfig{
			AccessSecret:      "authgate-access-secret-change-in-production",
			RefreshSecret:     "authgate-refresh-secret-change-in-production",
			AccessTTLMinutes:  5,
			RefreshTTLMinutes: 30,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		RateLimit: RateLimitConfig{
			Capacity:          10,
			RefillRate:        1,
			IdleExpirySeconds: 3600,
			FailMode:          "open",
		},
		Idempotency: IdempotencyConfig{
			TTLSeconds: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("ACCESS_TOKEN_SECRET"); secret != "" {
		c.JWT.AccessSecret = secret
	}
	if secret := os.Getenv("REFRESH_TOKEN_SECRET"); secret != "" {
		c.JWT.RefreshSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if mode := os.Getenv("RATELIMIT_FAIL_MODE"); mode != "" {
		c.RateLimit.FailMode = mode
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values.
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}
