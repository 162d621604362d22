package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects which session store adapter holds the session record.
type StoreBackend string

const (
	// StoreBackendFile persists the session record on the local filesystem.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis persists the session record in Redis.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory holds the session record in memory only
	// (development and tests).
	StoreBackendMemory StoreBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (s *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis", "memory":
		*s = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis, memory)", v)
	}
}

// SessionStoreConfig contains session persistence configuration.
type SessionStoreConfig struct {
	// Backend selects the session store adapter.
	Backend StoreBackend `env:"STORE" envDefault:"file"`

	// Dir is the directory holding the file store's two slots.
	Dir string `env:"DIR" envDefault:".storefront-session"`
}

// Sanitize applies guardrails to session store configuration values.
func (c *SessionStoreConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StoreBackendFile
	}
	if c.Dir == "" {
		c.Dir = ".storefront-session"
	}
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// Key is the Redis key holding the session record.
	Key string `env:"KEY" envDefault:"session:current"`
}
