package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	AuthToken         string
	DBURL             string
	RedisAddr         string
	ScoreCacheTTLSecs int
	PanelURL          string
	PanelAPIKey       string
	PanelTimeoutSecs  int
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AuthToken:         os.Getenv("AUTH_TOKEN"),
		DBURL:             os.Getenv("DB_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		ScoreCacheTTLSecs: getEnvInt("SCORE_CACHE_TTL_SECS", 300),
		PanelURL:          os.Getenv("PANEL_URL"),
		PanelAPIKey:       os.Getenv("PANEL_API_KEY"),
		PanelTimeoutSecs:  getEnvInt("PANEL_TIMEOUT_SECS", 5),
		ReadTimeoutSecs:   getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:  getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:   getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
	}

	if cfg.AuthToken == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.ScoreCacheTTLSecs <= 0 {
		return Config{}, fmt.Errorf("SCORE_CACHE_TTL_SECS must be positive")
	}
	if cfg.PanelURL != "" && cfg.PanelAPIKey == "" {
		return Config{}, fmt.Errorf("PANEL_API_KEY is required when PANEL_URL is set")
	}
	if cfg.PanelTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("PANEL_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}

	return cfg, nil
}

// PanelEnabled reports whether an external panel provider is configured.
func (c Config) PanelEnabled() bool {
	return c.PanelURL != ""
}

// CacheEnabled reports whether the redis score cache is configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
