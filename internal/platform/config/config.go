package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures process-level configuration. The domain core only needs to
// know where the store is; everything else here belongs to the HTTP surface.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	LogLevel      string
	Env           string // dev|prod

	// DuesGracePeriod is the policy hook for MarkPaid: a payment may be
	// backdated at most this far before its due date.
	DuesGracePeriod time.Duration
}

// Load builds a Config from environment variables so main stays lean. A .env
// file is honored when present, matching local development setups.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	grace := 24 * time.Hour
	if v := os.Getenv("DUES_GRACE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DUES_GRACE_PERIOD: %w", err)
		}
		grace = d
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return &Config{
		Addr:            getenv("RUSHLEDGER_ADDR", ":8080"),
		DatabaseURL:     dbURL,
		JWTSigningKey:   jwtSigningKey,
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Env:             getenv("ENV", "dev"),
		DuesGracePeriod: grace,
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
