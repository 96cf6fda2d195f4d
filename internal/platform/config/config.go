package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "identitykit/pkg/platform/strings"
)

// Identity captures SDK-level configuration. Values are immutable after
// construction; the demo binary builds one from the environment so main
// stays lean.
type Identity struct {
	// ServiceURL is the base URL of the identity webservice.
	ServiceURL string
	// WebsiteURL is the base URL of the identity web pages opened in the
	// external user agent. Defaults to ServiceURL when unset.
	WebsiteURL string
	// RedirectURL is the callback URL the provider redirects to on
	// completion. Must carry a scheme distinct from plain web URLs (custom
	// app scheme, or a loopback http URL for desktop hosts).
	RedirectURL string
	// AccessGroup namespaces the persisted credential; empty for the
	// default namespace.
	AccessGroup string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// LoopbackAddr is the listen address for the loopback callback server
	// used by desktop hosts.
	LoopbackAddr string
}

// RedisConfig holds connection settings for the redis credential store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds connection settings for the postgres credential store.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds settings for the audit event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds an Identity config from environment variables with
// development defaults.
func FromEnv() Identity {
	cfg := Identity{
		ServiceURL:   envOr("IDENTITY_SERVICE_URL", "https://id.example.test"),
		RedirectURL:  envOr("IDENTITY_REDIRECT_URL", "http://127.0.0.1:8422/callback"),
		AccessGroup:  os.Getenv("IDENTITY_ACCESS_GROUP"),
		LoopbackAddr: envOr("IDENTITY_LOOPBACK_ADDR", "127.0.0.1:8422"),
		Redis: RedisConfig{
			URL:          os.Getenv("IDENTITY_REDIS_URL"),
			PoolSize:     envInt("IDENTITY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("IDENTITY_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("IDENTITY_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("IDENTITY_AUDIT_TOPIC", "identity.audit"),
		},
	}
	cfg.WebsiteURL = envOr("IDENTITY_WEBSITE_URL", cfg.ServiceURL)
	if brokers := os.Getenv("IDENTITY_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
