// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full server configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN enables the durable record and audit stores. Empty means
	// in-memory stores (development only).
	PostgresDSN string
	// RedisURL enables the distributed pending lock. Empty means the
	// process-local lock.
	RedisURL string
	// KafkaBrokers enables the audit publisher and outcome notifier. Empty
	// means log-only notification.
	KafkaBrokers []string

	// Provider base URLs. All three empty means the deterministic dev stubs.
	DocumentProviderURL string
	AddressProviderURL  string
	FaceProviderURL     string
	ProviderAPIKey      string

	PollInterval    time.Duration
	MaxPollAttempts int
	ProviderTimeout time.Duration

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VOUCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("VOUCH_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default, must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("VOUCH_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("VOUCH_POSTGRES_DSN"),
		RedisURL:      os.Getenv("VOUCH_REDIS_URL"),
		KafkaBrokers:  brokers,

		DocumentProviderURL: os.Getenv("VOUCH_DOCUMENT_PROVIDER_URL"),
		AddressProviderURL:  os.Getenv("VOUCH_ADDRESS_PROVIDER_URL"),
		FaceProviderURL:     os.Getenv("VOUCH_FACE_PROVIDER_URL"),
		ProviderAPIKey:      os.Getenv("VOUCH_PROVIDER_API_KEY"),

		PollInterval:    durationFromEnv("VOUCH_POLL_INTERVAL", 2*time.Second),
		MaxPollAttempts: intFromEnv("VOUCH_MAX_POLL_ATTEMPTS", 15),
		ProviderTimeout: durationFromEnv("VOUCH_PROVIDER_TIMEOUT", 10*time.Second),
		ShutdownTimeout: durationFromEnv("VOUCH_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
