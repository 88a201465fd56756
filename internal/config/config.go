package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Graph     GraphConfig     `yaml:"graph"`
	Display   DisplayConfig   `yaml:"display"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"` // debug, release, test
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BackendConfig points at the remote Taskio REST API.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SessionConfig struct {
	Store              string `yaml:"store"` // memory, redis, database
	Secret             string `yaml:"secret"`
	CookieName         string `yaml:"cookie_name"`
	CookieSecure       bool   `yaml:"cookie_secure"`
	IdleTimeoutSeconds int    `yaml:"idle_timeout_seconds"`
	TickIntervalMS     int    `yaml:"tick_interval_ms"`
	PollIntervalMS     int    `yaml:"poll_interval_ms"`
	StoreTTLHours      int    `yaml:"store_ttl_hours"`
	JanitorSpec        string `yaml:"janitor_spec"`
}

// DatabaseConfig is used by the "database" session store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// RedisConfig is used by the "redis" session store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type UploadsConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// GraphConfig sizes the workflow graph viewport.
type GraphConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Iterations int     `yaml:"iterations"`
}

type DisplayConfig struct {
	Timezone string `yaml:"timezone"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables still win below
	_ = godotenv.Load()

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
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           "4200",
			Mode:           "debug",
			AllowedOrigins: []string{"http://localhost:4200"},
		},
		Backend: BackendConfig{
			BaseURL:        "https://localhost/taskio",
			TimeoutSeconds: 15,
		},
		Session: SessionConfig{
			Store:              "memory",
			Secret:             "taskio-session-secret-change-in-production",
			CookieName:         "taskio_session",
			IdleTimeoutSeconds: 12 * 60,
			TickIntervalMS:     1000,
			PollIntervalMS:     1000,
			StoreTTLHours:      24,
			JanitorSpec:        "@every 10m",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "taskio-sessions.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Uploads: UploadsConfig{
			MaxFileBytes: 5 * 1024 * 1024,
		},
		Graph: GraphConfig{
			Width:      800,
			Height:     600,
			Iterations: 300,
		},
		Display: DisplayConfig{
			Timezone: "Local",
		},
		RateLimit: RateLimitConfig{
			RPS:   2,
			Burst: 10,
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
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if baseURL := os.Getenv("BACKEND_URL"); baseURL != "" {
		c.Backend.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if store := os.Getenv("SESSION_STORE"); store != "" {
		c.Session.Store = store
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		c.Session.Secret = secret
	}
	if idle := os.Getenv("SESSION_IDLE_TIMEOUT"); idle != "" {
		if v, err := strconv.Atoi(idle); err == nil && v > 0 {
			c.Session.IdleTimeoutSeconds = v
		}
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
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

// BackendTimeout is the per-request timeout for remote calls.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (s SessionConfig) IdleBudget() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// StoreTTL bounds how long a record without a token expiry is kept.
func (s SessionConfig) StoreTTL() time.Duration {
	if s.StoreTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.StoreTTLHours) * time.Hour
}

func (s SessionConfig) TickInterval() time.Duration {
	return millis(s.TickIntervalMS)
}

func (s SessionConfig) PollInterval() time.Duration {
	return millis(s.PollIntervalMS)
}

// Location resolves the display timezone, falling back to the local zone.
func (d DisplayConfig) Location() *time.Location {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		return time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
