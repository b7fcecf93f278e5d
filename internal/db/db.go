package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"surfsup-server/internal/config"
)

const pingTimeout = 2 * time.Second

// Open returns a pool over the observation store. The store is opened read
// only. Startup keeps pinging until the store answers or cfg.ConnectTimeout
// elapses.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := driverFor(cfg.Driver)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(NewLoggingConnector(drv, dsn, logger))
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := ping(ctx, db, cfg.ConnectTimeout, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = timeout

	operation := func() error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pctx)
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("store not reachable, retrying", "error", err, "retry_in", next)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), notify)
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// CheckSchema verifies that every table in required exists with at least the
// listed columns.
func CheckSchema(ctx context.Context, db *sql.DB, required map[string][]string) error {
	var errs []error
	for table, columns := range required {
		have, err := tableColumns(ctx, db, table)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if len(have) == 0 {
			errs = append(errs, fmt.Errorf("missing table %q", table))
			continue
		}
		for _, col := range columns {
			if _, ok := have[col]; !ok {
				errs = append(errs, fmt.Errorf("table %q: missing column %q", table, col))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("schema check: %w", errors.Join(errs...))
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

// driverFor looks up a registered database/sql driver by name.
func driverFor(name string) (driver.Driver, error) {
	probe, err := sql.Open(name, "")
	if err != nil {
		return nil, err
	}
	defer probe.Close()
	return probe.Driver(), nil
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Path == "" {
		return "", errors.New("db dsn: empty SQLITE_PATH")
	}

	// mode=ro: the API never writes, and opening read only fails fast on a
	// missing file instead of creating an empty store.
	var params []string
	switch cfg.Driver {
	case "sqlite3":
		params = []string{"mode=ro", "_busy_timeout=5000"}
	case "sqlite":
		params = []string{"mode=ro", "_pragma=busy_timeout(5000)"}
	default:
		return "", fmt.Errorf("db dsn: unsupported driver %q", cfg.Driver)
	}

	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&"), nil
}
