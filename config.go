package pricedash

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once at startup and handed to the components that need it.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`          // default ":8080"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default 15s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default 30s
}

// DatabaseConfig holds the values the connection string is built from. Each
// field can be overridden by the environment variable named in its comment.
type DatabaseConfig struct {
	User     string `yaml:"user"`     // POSTGRES_USER
	Password string `yaml:"password"` // POSTGRES_PASSWORD
	Name     string `yaml:"name"`     // POSTGRES_DB
	Host     string `yaml:"host"`     // DB_HOST
	Port     string `yaml:"port"`     // DB_PORT
	SSLMode  string `yaml:"sslmode"`  // DB_SSLMODE, default "disable"
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"` // default 10 MiB
}

// ConnString returns a postgres:// URL with credentials escaped.
func (d DatabaseConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// LoadConfig applies defaults, then the YAML file at path (skipped when path
// is empty), then environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, os.LookupEnv)
}

func loadConfig(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.SSLMode = "disable"
	cfg.Upload.MaxBytes = 10 << 20

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	overrides := map[string]*string{
		"POSTGRES_USER":     &cfg.Database.User,
		"POSTGRES_PASSWORD": &cfg.Database.Password,
		"POSTGRES_DB":       &cfg.Database.Name,
		"DB_HOST":           &cfg.Database.Host,
		"DB_PORT":           &cfg.Database.Port,
		"DB_SSLMODE":        &cfg.Database.SSLMode,
	}
	for name, dst := range overrides {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Database.User == "" {
		errs = append(errs, errors.New("database.user is required (or set POSTGRES_USER)"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database.name is required (or set POSTGRES_DB)"))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required (or set DB_HOST)"))
	}
	if p, err := strconv.Atoi(c.Database.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("database.port %q is not a valid port", c.Database.Port))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	return errors.Join(errs...)
}
