package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvProduction is the environment name that turns on production behavior:
// Secure cookies, plain (uncoloured) logs, info level by default.
const EnvProduction = "production"

// Config is the effective puzzlr configuration, assembled by viper from
// defaults, an optional puzzlr.yaml, and PUZZLR_* environment variables.
type Config struct {
	Environment string         `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig   `mapstructure:"server" yaml:"server"`
	Database    Database       `mapstructure:"database" yaml:"database"`
	Auth        AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Activity    ActivityConfig `mapstructure:"activity" yaml:"activity"`
	Moderation  ListConfig     `mapstructure:"moderation" yaml:"moderation"`
	Sessions    SessionsConfig `mapstructure:"sessions" yaml:"sessions"`
	Log         LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxBodySize     int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// Database selects and tunes the backing store for sessions, credentials,
// activity and the catalog tables.
type Database struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // sqlite, postgres or mysql
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	DataDir         string        `mapstructure:"data_dir" yaml:"data_dir"` // sqlite only; empty means in-memory
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// AuthConfig controls the admin session lifecycle and cookie contract.
type AuthConfig struct {
	SessionLifetime time.Duration `mapstructure:"session_lifetime" yaml:"session_lifetime"`
	CookieName      string        `mapstructure:"cookie_name" yaml:"cookie_name"`
	AdminPrefix     string        `mapstructure:"admin_prefix" yaml:"admin_prefix"`
	LoginPath       string        `mapstructure:"login_path" yaml:"login_path"`
	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables the limit.
	LoginRateLimit int `mapstructure:"login_rate_limit" yaml:"login_rate_limit"`
}

// ActivityConfig bounds audit-trail reads and writes.
type ActivityConfig struct {
	DefaultLimit int           `mapstructure:"default_limit" yaml:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit" yaml:"max_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// ListConfig bounds a paged listing.
type ListConfig struct {
	DefaultLimit int `mapstructure:"default_limit" yaml:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit" yaml:"max_limit"`
}

// SessionsConfig controls optional housekeeping of expired sessions.
type SessionsConfig struct {
	// SweepSchedule is a cron expression (with seconds). Empty disables the
	// sweeper; expired sessions are then only purged lazily on lookup.
	SweepSchedule string `mapstructure:"sweep_schedule" yaml:"sweep_schedule"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// Default returns a Config pre-filled with development defaults.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			MaxBodySize:     1 << 20,
		},
		Database: Database{
			Driver:          "sqlite",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			SessionLifetime: 24 * time.Hour,
			CookieName:      "puzzlr_admin_session",
			AdminPrefix:     "/admin",
			LoginPath:       "/admin/login",
		},
		Activity: ActivityConfig{
			DefaultLimit: 50,
			MaxLimit:     500,
			WriteTimeout: 2 * time.Second,
		},
		Moderation: ListConfig{
			DefaultLimit: 50,
			MaxLimit:     200,
		},
		Log: LogConfig{
			Level:  "",
			Format: "console",
		},
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// Validate checks the settings that would otherwise fail late or silently.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q (want sqlite, postgres or mysql)", c.Database.Driver)
	}
	if c.Database.Driver != "sqlite" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
	}
	if c.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("auth.session_lifetime must be positive, got %s", c.Auth.SessionLifetime)
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if !strings.HasPrefix(c.Auth.AdminPrefix, "/") {
		return fmt.Errorf("auth.admin_prefix must start with '/', got %q", c.Auth.AdminPrefix)
	}
	if c.Activity.MaxLimit <= 0 || c.Activity.DefaultLimit <= 0 {
		return fmt.Errorf("activity limits must be positive")
	}
	if c.Activity.DefaultLimit > c.Activity.MaxLimit {
		return fmt.Errorf("activity.default_limit (%d) exceeds activity.max_limit (%d)",
			c.Activity.DefaultLimit, c.Activity.MaxLimit)
	}
	if c.Moderation.MaxLimit <= 0 || c.Moderation.DefaultLimit <= 0 {
		return fmt.Errorf("moderation limits must be positive")
	}
	if c.Moderation.DefaultLimit > c.Moderation.MaxLimit {
		return fmt.Errorf("moderation.default_limit (%d) exceeds moderation.max_limit (%d)",
			c.Moderation.DefaultLimit, c.Moderation.MaxLimit)
	}
	return nil
}

// Load unmarshals the settings held by v on top of the defaults and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every known key with its default so that
// environment overrides resolve even when no config file is present.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("environment", d.Environment)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.data_dir", d.Database.DataDir)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime.String())

	v.SetDefault("auth.session_lifetime", d.Auth.SessionLifetime.String())
	v.SetDefault("auth.cookie_name", d.Auth.CookieName)
	v.SetDefault("auth.admin_prefix", d.Auth.AdminPrefix)
	v.SetDefault("auth.login_path", d.Auth.LoginPath)
	v.SetDefault("auth.login_rate_limit", d.Auth.LoginRateLimit)

	v.SetDefault("activity.default_limit", d.Activity.DefaultLimit)
	v.SetDefault("activity.max_limit", d.Activity.MaxLimit)
	v.SetDefault("activity.write_timeout", d.Activity.WriteTimeout.String())

	v.SetDefault("moderation.default_limit", d.Moderation.DefaultLimit)
	v.SetDefault("moderation.max_limit", d.Moderation.MaxLimit)

	v.SetDefault("sessions.sweep_schedule", d.Sessions.SweepSchedule)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// NewViper returns a viper instance wired for PUZZLR_* environment
// overrides, e.g. PUZZLR_AUTH_SESSION_LIFETIME=12h.
func NewViper() *viper.Viper {
	v := viper.New()
	ConfigureEnv(v)
	return v
}

// ConfigureEnv applies the PUZZLR_ prefix and the dotted-key replacer to v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix("PUZZLR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
