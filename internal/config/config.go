package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string
	LogLevel    string

	// Redis backs the quote cache when set; otherwise an in-process LRU is used.
	RedisURL string

	DenylistTTL    time.Duration
	ListenDenylist bool
	QuoteCacheTTL  time.Duration
	QuoteWindow    time.Duration
	ThreadMaxDepth int
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	return nil
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		DatabaseURL:    databaseURL(),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "*")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		RedisURL:       getenv("REDIS_URL", ""),
		DenylistTTL:    getenvDuration("DENYLIST_TTL", time.Minute),
		ListenDenylist: getenvBool("LISTEN_DENYLIST", true),
		QuoteCacheTTL:  getenvDuration("QUOTE_CACHE_TTL", 10*time.Minute),
		QuoteWindow:    getenvDuration("QUOTE_WINDOW", time.Second),
		ThreadMaxDepth: getenvInt("THREAD_MAX_DEPTH", 50),
	}
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "5432"),
		getenv("DB_USER", "feedgraph"),
		getenv("DB_PASSWORD", "feedgraph"),
		getenv("DB_NAME", "feedgraph"),
		getenv("DB_SSLMODE", "disable"),
	)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration accepts Go durations ("90s") or plain seconds ("90").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
