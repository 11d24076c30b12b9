package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	EventStore EventStoreConfig
	Scheduling SchedulingConfig
	Inventory  InventoryConfig
	Legacy     LegacyConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds configuration for EventStoreDB, which backs the
// audit trail and the domain event bus.
type EventStoreConfig struct {
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	// Username for authentication (optional)
	Username string
	// Password for authentication (optional)
	Password string
	// Enabled controls whether events are published at all
	Enabled bool
}

// SchedulingConfig defines the clinic's working day. Slots are generated
// from WorkdayStartHour (inclusive) to WorkdayEndHour (exclusive) in
// SlotMinutes steps.
type SchedulingConfig struct {
	WorkdayStartHour int
	WorkdayEndHour   int
	SlotMinutes      int
}

// InventoryConfig tunes the derived stock alerts.
type InventoryConfig struct {
	// ExpiryHorizonDays is how far ahead an item counts as expiring soon
	ExpiryHorizonDays int
}

// LegacyConfig points at the SQL Server instance of the clinic's previous
// management system. The importer is optional and off by default.
type LegacyConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	PollInterval int // seconds
}

func (l LegacyConfig) ConnString() string {
	return fmt.Sprintf(
		"server=%s;port=%d;user id=%s;password=%s;database=%s",
		l.Host, l.Port, l.User, l.Password, l.Database,
	)
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "clinic"),
			Password: getEnv("DB_PASSWORD", "clinic"),
			Database: getEnv("DB_NAME", "clinic"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", true),
		},
		Scheduling: SchedulingConfig{
			WorkdayStartHour: getEnvInt("SCHEDULE_START_HOUR", 9),
			WorkdayEndHour:   getEnvInt("SCHEDULE_END_HOUR", 17),
			SlotMinutes:      getEnvInt("SCHEDULE_SLOT_MINUTES", 30),
		},
		Inventory: InventoryConfig{
			ExpiryHorizonDays: getEnvInt("INVENTORY_EXPIRY_HORIZON_DAYS", 30),
		},
		Legacy: LegacyConfig{
			Enabled:      getEnvBool("LEGACY_IMPORT_ENABLED", false),
			Host:         getEnv("LEGACY_DB_HOST", "localhost"),
			Port:         getEnvInt("LEGACY_DB_PORT", 1433),
			User:         getEnv("LEGACY_DB_USER", "sa"),
			Password:     getEnv("LEGACY_DB_PASSWORD", ""),
			Database:     getEnv("LEGACY_DB_NAME", "clinic_legacy"),
			PollInterval: getEnvInt("LEGACY_POLL_INTERVAL_SECONDS", 300),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
