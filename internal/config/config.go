package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Secret         string
	HTTPPort       string
	DatabaseDriver string
	DatabaseDSN    string
	Env            string
	LogLevel       string
	LogFormat      string
	CORSOrigins    []string
	TokenTTL       time.Duration

	LowStockThreshold int64
	ExpiryWindowDays  int

	// SeedStockFile, when set together with SeedTenantEmail, is imported into
	// that tenant's stock at startup.
	SeedStockFile   string
	SeedTenantEmail string
}

const defaultSQLiteDSN = "file:medeasy.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// Load reads configuration from environment variables with reasonable defaults.
// Callers are expected to have loaded any .env file beforehand.
func Load() Config {
	secret := getEnv("SECRET", "dev_secret")

	port := getEnv("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		log.Printf("unsupported DATABASE_DRIVER %q, defaulting to sqlite", driver)
		driver = "sqlite"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		if driver == "postgres" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				getEnv("DB_USER", "postgres"),
				os.Getenv("DB_PASSWORD"),
				getEnv("DB_HOST", "localhost"),
				getEnv("DB_PORT", "5432"),
				getEnv("DB_NAME", "medeasy"),
			)
		} else {
			dsn = defaultSQLiteDSN
		}
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		log.Printf("invalid TOKEN_TTL value %q, defaulting to 24h", os.Getenv("TOKEN_TTL"))
		ttl = 24 * time.Hour
	}

	env := getEnv("APP_ENV", "development")
	format := "console"
	if env == "production" {
		format = "json"
	}

	return Config{
		Secret:            secret,
		HTTPPort:          port,
		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		Env:               env,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", format),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		TokenTTL:          ttl,
		LowStockThreshold: int64(getInt("LOW_STOCK_THRESHOLD", 40)),
		ExpiryWindowDays:  getInt("EXPIRY_WINDOW_DAYS", 30),
		SeedStockFile:     os.Getenv("SEED_STOCK_FILE"),
		SeedTenantEmail:   os.Getenv("SEED_TENANT_EMAIL"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s value %q, defaulting to %d", key, raw, fallback)
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
