package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Log        LogConfig
	Kafka      KafkaConfig
	Settlement SettlementConfig
	Simulation SimulationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string // "postgres" or "memory"
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	PolicyCacheTTL time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// KafkaConfig holds the ride event producer configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// SettlementConfig bounds how long a settlement waits on contention.
type SettlementConfig struct {
	LockTimeout time.Duration
	RideLockTTL time.Duration
}

// SimulationConfig bounds batch simulation.
type SimulationConfig struct {
	DefaultBatch int
	MaxBatch     int
}

var defaults = map[string]any{
	"SERVER_PORT":              "8080",
	"SERVER_READ_TIMEOUT":      10 * time.Second,
	"SERVER_WRITE_TIMEOUT":     10 * time.Second,
	"STORE_BACKEND":            "postgres",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "postgres",
	"DB_NAME":                  "ridefare",
	"DB_SSLMODE":               "disable",
	"REDIS_ENABLED":            true,
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"POLICY_CACHE_TTL":         60 * time.Second,
	"NEW_RELIC_APP_NAME":       "ridefare",
	"NEW_RELIC_LICENSE_KEY":    "",
	"NEW_RELIC_ENABLED":        false,
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
	"KAFKA_ENABLED":            false,
	"KAFKA_BROKERS":            "localhost:9092",
	"KAFKA_TOPIC":              "ride-events",
	"SETTLEMENT_LOCK_TIMEOUT":  3 * time.Second,
	"SETTLEMENT_RIDE_LOCK_TTL": 10 * time.Second,
	"SIMULATION_DEFAULT_BATCH": 50,
	"SIMULATION_MAX_BATCH":     200,
}

// Load loads configuration from environment variables, optionally layered
// over the file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:        v.GetBool("REDIS_ENABLED"),
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			PolicyCacheTTL: v.GetDuration("POLICY_CACHE_TTL"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("NEW_RELIC_APP_NAME"),
			LicenseKey: v.GetString("NEW_RELIC_LICENSE_KEY"),
			Enabled:    v.GetBool("NEW_RELIC_ENABLED"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("KAFKA_ENABLED"),
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Settlement: SettlementConfig{
			LockTimeout: v.GetDuration("SETTLEMENT_LOCK_TIMEOUT"),
			RideLockTTL: v.GetDuration("SETTLEMENT_RIDE_LOCK_TTL"),
		},
		Simulation: SimulationConfig{
			DefaultBatch: v.GetInt("SIMULATION_DEFAULT_BATCH"),
			MaxBatch:     v.GetInt("SIMULATION_MAX_BATCH"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
