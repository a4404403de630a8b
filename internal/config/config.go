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
	AppName          string
	AppVersion       string
	Environment      string
	AuthCookieSecure bool

	HTTPAddr       string
	UploadMaxBytes int64

	WorkspaceIdleTTL       time.Duration
	WorkspaceSweepInterval time.Duration

	OTLPEndpoint string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:                getenv("APP_SERVICE", "dunning"),
		AppVersion:             getenv("APP_VERSION", "0.1.0"),
		Environment:            environment,
		AuthCookieSecure:       authCookieSecure,
		HTTPAddr:               getenv("HTTP_ADDR", ":8080"),
		UploadMaxBytes:         getenvInt64("UPLOAD_MAX_BYTES", 32<<20),
		WorkspaceIdleTTL:       getenvDuration("WORKSPACE_IDLE_TTL", 2*time.Hour),
		WorkspaceSweepInterval: getenvDuration("WORKSPACE_SWEEP_INTERVAL", 5*time.Minute),
		OTLPEndpoint:           getenv("OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
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
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
