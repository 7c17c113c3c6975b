package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the memo store backend.
// URL is a postgres connection string or a sqlite file path; the in-memory
// backend ignores it.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite memory"`
	URL    string `mapstructure:"url" validate:"required_unless=Driver memory"`
}

// ReviewConfig bounds the size and latency of review sessions.
type ReviewConfig struct {
	DueLimit     int           `mapstructure:"due_limit" validate:"gte=0,ltefield=MaxLimit"`
	NewLimit     int           `mapstructure:"new_limit" validate:"gte=0,ltefield=MaxLimit"`
	RandomLimit  int           `mapstructure:"random_limit" validate:"gte=0,ltefield=RandomWindow"`
	RandomWindow int           `mapstructure:"random_window" validate:"gt=0"`
	MaxLimit     int           `mapstructure:"max_limit" validate:"gt=0"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" validate:"gt=0"`
}

// SRSConfig overrides scheduler parameters. Zero values keep the defaults.
// The ease floor may only be raised, up to the creation default of 2.5.
type SRSConfig struct {
	MinEaseFactor  float64 `mapstructure:"min_ease_factor" validate:"omitempty,gte=1.3,lte=2.5"`
	FirstInterval  int     `mapstructure:"first_interval" validate:"gte=0"`
	SecondInterval int     `mapstructure:"second_interval" validate:"gte=0"`
}

// ReminderConfig controls the background due-review reminder job.
type ReminderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron" validate:"required_if=Enabled true"`
}
