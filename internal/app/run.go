package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"surfsup-server/internal/config"
	db "surfsup-server/internal/db"
	httpapi "surfsup-server/internal/httpapi"
	climate "surfsup-server/internal/modules/climate"
	"surfsup-server/internal/modules/climate/repository"
	climateviews "surfsup-server/internal/modules/climate/views"
)

// Run serves the climate API until ctx is cancelled or the listener fails.
// A store that cannot be reached or lacks the expected tables is fatal.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbDSNSet", cfg.DSN != "",
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogSQL", cfg.LogSQL,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := db.CheckSchema(ctx, dbConn, repository.RequiredColumns); err != nil {
		return err
	}
	logger.Info("database connection successful")

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn)
	climate.RegisterFeature(mux, dbConn, logger)

	srv := httpapi.NewServer(cfg, mux, logger)
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
