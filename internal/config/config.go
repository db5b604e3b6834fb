package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Sources SourcesConfig
	Globe   GlobeConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// SourcesConfig describes the fallback chain. StaticURL, when set, is
// fetched instead of reading StaticPath.
type SourcesConfig struct {
	PrimaryURL      string
	StaticPath      string
	StaticURL       string
	FetchTimeout    time.Duration
	RefreshInterval time.Duration
}

type GlobeConfig struct {
	Radius            float64
	FrameInterval     time.Duration
	SessionTTL        time.Duration
	SeverityScalePath string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 50),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 1),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 8),
		},
		Sources: SourcesConfig{
			PrimaryURL:      getEnv("PRIMARY_URL", "http://localhost:8001/api/crises"),
			StaticPath:      getEnv("STATIC_PATH", "./data/crises/mock_actionable_crises.json"),
			StaticURL:       getEnv("STATIC_URL", ""),
			FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		},
		Globe: GlobeConfig{
			Radius:            getEnvFloat("GLOBE_RADIUS", 100),
			FrameInterval:     getEnvDuration("FRAME_INTERVAL", 16*time.Millisecond),
			SessionTTL:        getEnvDuration("SESSION_TTL", 10*time.Minute),
			SeverityScalePath: getEnv("SEVERITY_SCALE_PATH", ""),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/crisis-globe.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per second")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}

	if c.Sources.RefreshInterval < 30*time.Second {
		return fmt.Errorf("refresh interval must be at least 30 seconds")
	}
	if c.Sources.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if c.Globe.Radius <= 0 {
		return fmt.Errorf("invalid globe radius: %v", c.Globe.Radius)
	}
	if c.Globe.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
