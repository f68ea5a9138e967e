// Package config provides configuration management for the Fantasy Grid application.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Health     HealthConfig     `mapstructure:"health" validate:"required"`
	Events     []EventConfig    `mapstructure:"events" validate:"omitempty,dive"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. When disabled,
// predictions are computed but not stored.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SimulationConfig holds Monte Carlo defaults
type SimulationConfig struct {
	DefaultIterations   int   `mapstructure:"default_iterations" validate:"required,gt=0"`
	Workers             int   `mapstructure:"workers" validate:"gte=0"`
	Seed                int64 `mapstructure:"seed"`
	BatchTimeoutSeconds int   `mapstructure:"batch_timeout_seconds" validate:"gte=0"`
	DefaultTotalLaps    int   `mapstructure:"default_total_laps" validate:"required,gt=0"`
}

// IngestionConfig tunes driver parameter derivation from lap files
type IngestionConfig struct {
	PitStopLoss    float64 `mapstructure:"pit_stop_loss" validate:"required,gt=0"`
	MinConsistency float64 `mapstructure:"min_consistency" validate:"required,gt=0"`
	QuickLapFactor float64 `mapstructure:"quick_lap_factor" validate:"required,gt=1"`
	MinLaps        int     `mapstructure:"min_laps" validate:"required,gte=2"`
	MinDrivers     int     `mapstructure:"min_drivers" validate:"required,gte=1"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port               int     `mapstructure:"port" validate:"required,min=1,max=65535"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	Burst              int     `mapstructure:"burst" validate:"required,gt=0"`
	MaxIterations      int     `mapstructure:"max_iterations" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the health server configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// EventConfig describes one race to forecast. Drivers are given inline or
// derived from LapsFile.
type EventConfig struct {
	Name            string         `mapstructure:"name" validate:"required"`
	TotalLaps       int            `mapstructure:"total_laps" validate:"required,gt=0"`
	RainProbability float64        `mapstructure:"rain_probability" validate:"probability"`
	Iterations      int            `mapstructure:"iterations" validate:"gte=0"`
	LapsFile        string         `mapstructure:"laps_file"`
	Drivers         []DriverConfig `mapstructure:"drivers" validate:"omitempty,dive"`
	Schedule        string         `mapstructure:"schedule" validate:"omitempty,cron"`
}

// DriverConfig holds inline driver parameters for an event
type DriverConfig struct {
	Name        string  `mapstructure:"name" validate:"required"`
	BaseLapTime float64 `mapstructure:"base_lap_time" validate:"required,gt=0"`
	Consistency float64 `mapstructure:"consistency" validate:"gte=0"`
	PitStopLoss float64 `mapstructure:"pit_stop_loss" validate:"required,gt=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a postgres:// URL. Credentials are escaped, so
// passwords may contain any character.
func (c *Config) GetDatabaseDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Host:   net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:   "/" + c.Database.Name,
	}
	if c.Database.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Database.SSLMode}}.Encode()
	}
	return u.String()
}

// BatchTimeout returns the per-batch timeout, zero meaning none
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.Simulation.BatchTimeoutSeconds) * time.Second
}

// Event looks up a configured event by name
func (c *Config) Event(name string) (EventConfig, bool) {
	for _, e := range c.Events {
		if e.Name == name {
			return e, true
		}
	}
	return EventConfig{}, false
}
