package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	StorageBackend string
	SQLitePath     string
	StateFile      string

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "marketplace"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		StorageBackend: strings.ToLower(EnvDefault("STORAGE_BACKEND", BackendSQLite)),
		SQLitePath:     EnvDefault("SQLITE_PATH", "data/marketplace.db"),
		StateFile:      EnvDefault("STATE_FILE", "data/marketplace.json"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "marketplace_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),
	}
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s backend", BackendSQLite)
		}
	case BackendFile:
		if c.StateFile == "" {
			return fmt.Errorf("STATE_FILE is required for the %s backend", BackendFile)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
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
