// Package config loads printcenter settings from an optional YAML file and
// PRINTCENTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PRINTCENTER_STORE_DRIVER
const EnvPrefix = "PRINTCENTER"

// Storage drivers
const (
	DriverBolt   = "bolt"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	// RequestTimeout bounds one API request
	RequestTimeout time.Duration
	// CORSOrigins lists the browser origins allowed to call the API; empty allows any
	CORSOrigins []string
}

type StoreConfig struct {
	Driver string
	Path   string
	DSN    string
}

type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type JobsConfig struct {
	Enabled              bool
	ConfirmationInterval time.Duration
	DeliveryInterval     time.Duration
	OverdueInterval      time.Duration
	LowStockInterval     time.Duration
	BookingInterval      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

type WebhookConfig struct {
	URL        string
	MaxElapsed time.Duration
}

type VisitsConfig struct {
	Timezone string
}

// Config is the resolved process configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Jobs      JobsConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Webhook   WebhookConfig
	Visits    VisitsConfig

	// File is the config file that was read, if any
	File string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("store.driver", DriverBolt)
	v.SetDefault("store.path", "data/printcenter.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.access_ttl", "30m")
	v.SetDefault("auth.refresh_ttl", "24h")
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.confirmation_interval", "15m")
	v.SetDefault("jobs.delivery_interval", "30m")
	v.SetDefault("jobs.overdue_interval", "24h")
	v.SetDefault("jobs.low_stock_interval", "1h")
	v.SetDefault("jobs.booking_interval", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "printcenter")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.max_elapsed", "30s")
	v.SetDefault("visits.timezone", "UTC")
}

// newViper returns a viper instance with defaults and env binding but no file
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path when it is non-empty and applies environment overrides.
// A missing file named explicitly is an error.
func Load(path string) (*Config, error) {
	v, err := read(path)
	if err != nil {
		return nil, err
	}
	return decode(v), nil
}

func read(path string) (*viper.Viper, error) {
	v := newViper()
	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

func decode(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			CORSOrigins:     v.GetStringSlice("server.cors_origins"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
			DSN:    v.GetString("store.dsn"),
		},
		Auth: AuthConfig{
			Secret:     v.GetString("auth.secret"),
			AccessTTL:  v.GetDuration("auth.access_ttl"),
			RefreshTTL: v.GetDuration("auth.refresh_ttl"),
		},
		Jobs: JobsConfig{
			Enabled:              v.GetBool("jobs.enabled"),
			ConfirmationInterval: v.GetDuration("jobs.confirmation_interval"),
			DeliveryInterval:     v.GetDuration("jobs.delivery_interval"),
			OverdueInterval:      v.GetDuration("jobs.overdue_interval"),
			LowStockInterval:     v.GetDuration("jobs.low_stock_interval"),
			BookingInterval:      v.GetDuration("jobs.booking_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("telemetry.enabled"),
			ServiceName: v.GetString("telemetry.service_name"),
		},
		Webhook: WebhookConfig{
			URL:        v.GetString("webhook.url"),
			MaxElapsed: v.GetDuration("webhook.max_elapsed"),
		},
		Visits: VisitsConfig{
			Timezone: v.GetString("visits.timezone"),
		},
		File: v.ConfigFileUsed(),
	}
}

// Validate checks the settings needed to open the store. requireSecret is
// set by commands that issue tokens.
func (c *Config) Validate(requireSecret bool) error {
	var errs []error
	switch c.Store.Driver {
	case DriverBolt:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the bolt driver"))
		}
	case DriverMySQL:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the mysql driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q (valid: bolt, mysql, memory)", c.Store.Driver))
	}
	if requireSecret && strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, errors.New("auth.secret is required"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("auth token lifetimes must be positive"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if c.Webhook.MaxElapsed <= 0 {
		errs = append(errs, errors.New("webhook.max_elapsed must be positive"))
	}
	if _, err := time.LoadLocation(c.Visits.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("visits.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves visits.timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Visits.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Watch re-reads path on every write and passes the new config to onChange.
// It does nothing when path is empty.
func Watch(path string, onChange func(*Config)) error {
	if path == "" {
		return nil
	}
	v, err := read(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return nil
}
