package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DataAPIURL     string
	DataAPITimeout time.Duration

	SessionSecret  string
	SessionBackend string // cookie or redis
	SessionTTL     time.Duration
	CookieSecure   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DatabaseURL enables the audit trail; empty turns it off.
	DatabaseURL string

	AuthRateLimit  int
	AuthRateWindow time.Duration
	TaskRateLimit  int
	TaskRateWindow time.Duration

	LogLevel string
	LogJSON  bool

	AllowedOrigin string
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		logger.Fatal("SESSION_SECRET is not set")
	}

	backend := strings.ToLower(getString("SESSION_BACKEND", "cookie"))
	if backend != "cookie" && backend != "redis" {
		logger.Fatal("SESSION_BACKEND must be cookie or redis", "value", backend)
	}

	cfg := &Config{
		AppPort:        getString("APP_PORT", "8080"),
		DataAPIURL:     strings.TrimRight(getString("DATA_API_URL", "http://localhost:3000"), "/"),
		DataAPITimeout: time.Duration(getInt("DATA_API_TIMEOUT_SECONDS", 10)) * time.Second,
		SessionSecret:  secret,
		SessionBackend: backend,
		SessionTTL:     time.Duration(getInt("SESSION_TTL_HOURS", 0)) * time.Hour,
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AuthRateLimit:  getInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow: time.Duration(getInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		TaskRateLimit:  getInt("TASK_RATE_LIMIT", 30),
		TaskRateWindow: time.Duration(getInt("TASK_RATE_WINDOW_SECONDS", 60)) * time.Second,
		LogLevel:       getString("LOG_LEVEL", "info"),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
		AllowedOrigin:  os.Getenv("ALLOWED_ORIGIN"),
	}

	if cfg.SessionBackend == "redis" && cfg.RedisAddr == "" {
		logger.Fatal("SESSION_BACKEND=redis requires REDIS_ADDR")
	}
	return cfg
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt ignores values that do not parse or are negative.
func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid config value", "key", key, "value", v)
		return def
	}
	return n
}
