package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const fileHeader = `# Puzzlr admin service configuration.
# Every key can be overridden with a PUZZLR_* environment variable,
# e.g. PUZZLR_AUTH_SESSION_LIFETIME=12h or PUZZLR_DATABASE_DRIVER=postgres.
`

// fileConfig mirrors Config with durations rendered as strings, so the
// written file reads "24h" instead of nanoseconds.
type fileConfig struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string   `yaml:"host"`
		Port            int      `yaml:"port"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		CORSOrigins     []string `yaml:"cors_origins"`
		MaxBodySize     int64    `yaml:"max_body_size"`
	} `yaml:"server"`
	Database struct {
		Driver          string `yaml:"driver"`
		DSN             string `yaml:"dsn"`
		DataDir         string `yaml:"data_dir"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	} `yaml:"database"`
	Auth struct {
		SessionLifetime string `yaml:"session_lifetime"`
		CookieName      string `yaml:"cookie_name"`
		AdminPrefix     string `yaml:"admin_prefix"`
		LoginPath       string `yaml:"login_path"`
		LoginRateLimit  int    `yaml:"login_rate_limit"`
	} `yaml:"auth"`
	Activity struct {
		DefaultLimit int    `yaml:"default_limit"`
		MaxLimit     int    `yaml:"max_limit"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"activity"`
	Moderation ListConfig     `yaml:"moderation"`
	Sessions   SessionsConfig `yaml:"sessions"`
	Log        LogConfig      `yaml:"log"`
}

func toFileConfig(c Config) fileConfig {
	var f fileConfig
	f.Environment = c.Environment
	f.Server.Host = c.Server.Host
	f.Server.Port = c.Server.Port
	f.Server.ShutdownTimeout = c.Server.ShutdownTimeout.String()
	f.Server.CORSOrigins = c.Server.CORSOrigins
	f.Server.MaxBodySize = c.Server.MaxBodySize
	f.Database.Driver = c.Database.Driver
	f.Database.DSN = c.Database.DSN
	f.Database.DataDir = c.Database.DataDir
	f.Database.MaxOpenConns = c.Database.MaxOpenConns
	f.Database.MaxIdleConns = c.Database.MaxIdleConns
	f.Database.ConnMaxLifetime = c.Database.ConnMaxLifetime.String()
	f.Auth.SessionLifetime = c.Auth.SessionLifetime.String()
	f.Auth.CookieName = c.Auth.CookieName
	f.Auth.AdminPrefix = c.Auth.AdminPrefix
	f.Auth.LoginPath = c.Auth.LoginPath
	f.Auth.LoginRateLimit = c.Auth.LoginRateLimit
	f.Activity.DefaultLimit = c.Activity.DefaultLimit
	f.Activity.MaxLimit = c.Activity.MaxLimit
	f.Activity.WriteTimeout = c.Activity.WriteTimeout.String()
	f.Moderation = c.Moderation
	f.Sessions = c.Sessions
	f.Log = c.Log
	return f
}

// MarshalYAML renders c as a puzzlr.yaml document. The database DSN is
// masked unless showSecrets is set.
func MarshalYAML(c Config, showSecrets bool) ([]byte, error) {
	f := toFileConfig(c)
	if !showSecrets && f.Database.DSN != "" {
		f.Database.DSN = "********"
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := MarshalYAML(Default(), true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0644)
}
