package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server reads from the environment so main
// stays lean.
type Config struct {
	Addr string

	// Persistence. Empty DatabaseURL falls back to the in-memory store
	// (development only). Empty RedisURL disables the terminal-record cache.
	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration

	// Upstream providers.
	IdentityAPIURL string
	CreditAPIURL   string
	LookupTimeout  time.Duration

	// Decision audit trail. Empty KafkaBrokers disables publishing.
	KafkaBrokers []string
	AuditTopic   string

	// Caller authentication. Empty JWTSigningKey disables auth entirely
	// (development only).
	JWTSigningKey    string
	APIClientID      string
	ClientSecretHash string
	TokenTTL         time.Duration
}

// FromEnv builds a Config from environment variables, with development
// defaults where it is safe to have them.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("CREDITGATE_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		CacheTTL:         getduration("CACHE_TTL", 24*time.Hour),
		IdentityAPIURL:   getenv("IDENTITY_API_URL", "http://localhost:9001"),
		CreditAPIURL:     getenv("CREDIT_API_URL", "http://localhost:9002"),
		LookupTimeout:    getduration("LOOKUP_TIMEOUT", 8*time.Second),
		AuditTopic:       getenv("AUDIT_TOPIC", "creditgate.decisions"),
		JWTSigningKey:    os.Getenv("JWT_SIGNING_KEY"),
		APIClientID:      os.Getenv("API_CLIENT_ID"),
		ClientSecretHash: os.Getenv("API_CLIENT_SECRET_HASH"),
		TokenTTL:         getduration("TOKEN_TTL", time.Hour),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
