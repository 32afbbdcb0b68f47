package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	AdaptyBaseURL   string
	AdaptySecretKey string
	AdaptyTimeout   time.Duration

	FalBaseURL string
	FalKey     string
	// FalTimeout bounds a single model invocation; chained calls within one
	// request share this ceiling.
	FalTimeout time.Duration

	RemoteConfigBaseURL string
	RemoteConfigAPIKey  string
	PromptCacheTTL      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "wardrobe"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "wardrobe"),
		DBUser:            getenv("DATABASE_USER", "wardrobe"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		AdaptyBaseURL:   getenv("ADAPTY_BASE_URL", "https://api.adapty.io"),
		AdaptySecretKey: strings.TrimSpace(getenv("ADAPTY_SECRET_KEY", "")),
		AdaptyTimeout:   getenvDuration("ADAPTY_TIMEOUT", 10*time.Second),

		FalBaseURL: getenv("FAL_BASE_URL", "https://fal.run"),
		FalKey:     strings.TrimSpace(getenv("FAL_KEY", "")),
		FalTimeout: getenvDuration("FAL_TIMEOUT", 180*time.Second),

		RemoteConfigBaseURL: getenv("REMOTE_CONFIG_BASE_URL", ""),
		RemoteConfigAPIKey:  strings.TrimSpace(getenv("REMOTE_CONFIG_API_KEY", "")),
		PromptCacheTTL:      getenvDuration("PROMPT_CACHE_TTL", time.Hour),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
