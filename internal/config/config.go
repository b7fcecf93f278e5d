package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

const (
	defaultAppEnv   = "dev"
	defaultLogLevel = "info"
	defaultHTTPAddr = ":8080"
	defaultDriver   = "sqlite3"
	defaultPath     = "Resources/hawaii.sqlite"
)

// Config is filled from command-line flags, falling back to the environment
// variable named in each env tag and then to the default.
type Config struct {
	AppEnv       string     `name:"app-env" env:"APP_ENV" default:"dev" help:"Runtime environment (dev, prod)."`
	LogLevelName string     `name:"log-level" env:"LOG_LEVEL" default:"info" help:"Log level (debug, info, warn, error)."`
	LogLevel     slog.Level `kong:"-"`
	HTTPAddr     string     `name:"http-addr" env:"HTTP_ADDR" default:":8080" help:"Address the HTTP server listens on."`

	Driver          string        `name:"db-driver" env:"DB_DRIVER" default:"sqlite3" help:"database/sql driver (sqlite3, sqlite)."`
	Path            string        `name:"sqlite-path" env:"SQLITE_PATH" default:"Resources/hawaii.sqlite" help:"Path to the observation store."`
	DSN             string        `name:"db-dsn" env:"DB_DSN" help:"Full DSN; overrides --sqlite-path when set."`
	MaxOpenConns    int           `name:"db-max-open-conns" env:"DB_MAX_OPEN_CONNS" default:"4" help:"Maximum open store connections."`
	MaxIdleConns    int           `name:"db-max-idle-conns" env:"DB_MAX_IDLE_CONNS" default:"4" help:"Maximum idle store connections."`
	ConnMaxLifetime time.Duration `name:"db-conn-max-lifetime" env:"DB_CONN_MAX_LIFETIME" default:"0s" help:"Maximum lifetime of a store connection (0 keeps forever)."`
	ConnectTimeout  time.Duration `name:"db-connect-timeout" env:"DB_CONNECT_TIMEOUT" default:"10s" help:"How long startup retries reaching the store."`
	LogSQL          bool          `name:"db-log-sql" env:"DB_LOG_SQL" help:"Log every SQL statement at debug level."`

	ShutdownTimeout time.Duration `name:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

// Load parses args (without the program name) and the environment.
func Load(args []string) (Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("surfsup-server"),
		kong.Description("Read-only HTTP API over the Hawaii climate observation store."),
	)
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.AppEnv = orDefault(c.AppEnv, defaultAppEnv)
	switch c.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", c.AppEnv)
	}

	c.LogLevelName = orDefault(c.LogLevelName, defaultLogLevel)
	level, err := parseLogLevel(c.LogLevelName)
	if err != nil {
		return err
	}
	c.LogLevel = level

	c.HTTPAddr = orDefault(c.HTTPAddr, defaultHTTPAddr)

	c.Driver = orDefault(c.Driver, defaultDriver)
	switch c.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, sqlite)", c.Driver)
	}
	c.Path = orDefault(c.Path, defaultPath)
	c.DSN = strings.TrimSpace(c.DSN)

	if c.MaxOpenConns < 0 {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS %d: must be >= 0", c.MaxOpenConns)
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %s: must be >= 0", c.ConnMaxLifetime)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("invalid DB_CONNECT_TIMEOUT %s: must be > 0", c.ConnectTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %s: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
