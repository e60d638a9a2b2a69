package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int

	DatabaseURL string

	APIURL     string
	APITimeout time.Duration

	LogLevel string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	CookieSecure bool
	CORSOrigins  []string
	CSRFEnabled  bool
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: EnvDefault("DATABASE_URL", "sqlite://storefront.db"),

		APIURL:     strings.TrimRight(EnvDefault("API_URL", "https://api.sebaorekind.site"), "/"),
		APITimeout: EnvDurationDefault("API_TIMEOUT", 0),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "storefront_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),

		CookieSecure: EnvBoolDefault("COOKIE_SECURE", false),
		CORSOrigins:  CSV(EnvDefault("CORS_ORIGINS", "http://localhost:5173")),
		CSRFEnabled:  EnvBoolDefault("CSRF_ENABLED", true),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// EnvDurationDefault accepts Go durations ("1500ms", "5s") or a plain number of seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
