package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"surfsup-server/internal/metrics"
	"surfsup-server/internal/modules/climate/dates"
	"surfsup-server/internal/modules/climate/types"
)

//go:embed sql/schema.sql
var Schema string

//go:embed sql/get-latest-measurement-date.sql
var getLatestMeasurementDateSQL string

//go:embed sql/get-station-ids.sql
var getStationIDsSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-temperatures.sql
var getTemperaturesSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

// RequiredColumns lists the tables and columns the queries above depend on.
// It is checked once at startup against the live store.
var RequiredColumns = map[string][]string{
	"station":     {"id", "station"},
	"measurement": {"id", "station", "date", "prcp", "tobs"},
}

type ClimateRepository interface {
	// WithSession runs fn on a dedicated store connection and releases it
	// before returning, whatever fn returns.
	WithSession(ctx context.Context, fn func(Session) error) error
}

// Session is the typed read API over the station and measurement tables.
// Date bounds are inclusive.
type Session interface {
	GetLatestMeasurementDate(ctx context.Context) (string, bool, error)
	GetStationIDs(ctx context.Context) ([]string, error)
	GetPrecipitation(ctx context.Context, from time.Time, to time.Time) ([]types.StationPrecipitation, error)
	GetMostActiveStation(ctx context.Context) (types.StationActivity, bool, error)
	GetTemperatures(ctx context.Context, station string, from time.Time, to time.Time) ([]types.TemperatureObservation, error)
	GetTemperatureStats(ctx context.Context, from time.Time, to time.Time) (types.TemperatureStats, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithSession(ctx context.Context, fn func(Session) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	metrics.StoreSessionsOpened.Inc()
	metrics.StoreSessionsInUse.Inc()
	defer func() {
		metrics.StoreSessionsInUse.Dec()
		if err := conn.Close(); err != nil {
			slog.Error("close store session", "error", err)
		}
	}()
	return fn(&session{conn: conn})
}

type session struct {
	conn *sql.Conn
}

func (s *session) GetLatestMeasurementDate(ctx context.Context) (string, bool, error) {
	var latest sql.NullString
	if err := s.conn.QueryRowContext(ctx, getLatestMeasurementDateSQL).Scan(&latest); err != nil {
		return "", false, err
	}
	return latest.String, latest.Valid, nil
}

func (s *session) GetStationIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, getStationIDsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close station rows", "error", err)
		}
	}()
	out := []string{}
	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id.String)
	}
	return out, rows.Err()
}

func (s *session) GetPrecipitation(ctx context.Context, from time.Time, to time.Time) ([]types.StationPrecipitation, error) {
	rows, err := s.conn.QueryContext(ctx, getPrecipitationSQL, dates.Format(from), dates.Format(to))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close precipitation rows", "error", err)
		}
	}()
	out := []types.StationPrecipitation{}
	for rows.Next() {
		var (
			rec     types.StationPrecipitation
			station sql.NullString
			prcp    sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &station, &prcp); err != nil {
			return nil, err
		}
		rec.Station = station.String
		rec.Precipitation = nullFloat(prcp)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *session) GetMostActiveStation(ctx context.Context) (types.StationActivity, bool, error) {
	var a types.StationActivity
	err := s.conn.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&a.Station, &a.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StationActivity{}, false, nil
	}
	if err != nil {
		return types.StationActivity{}, false, err
	}
	return a, true, nil
}

func (s *session) GetTemperatures(ctx context.Context, station string, from time.Time, to time.Time) ([]types.TemperatureObservation, error) {
	rows, err := s.conn.QueryContext(ctx, getTemperaturesSQL, station, dates.Format(from), dates.Format(to))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close temperature rows", "error", err)
		}
	}()
	out := []types.TemperatureObservation{}
	for rows.Next() {
		var obs types.TemperatureObservation
		if err := rows.Scan(&obs.Date, &obs.Temperature); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (s *session) GetTemperatureStats(ctx context.Context, from time.Time, to time.Time) (types.TemperatureStats, error) {
	var lo, avg, hi sql.NullFloat64
	err := s.conn.QueryRowContext(ctx, getTemperatureStatsSQL, dates.Format(from), dates.Format(to)).Scan(&lo, &avg, &hi)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	return types.TemperatureStats{
		Min: nullFloat(lo),
		Avg: nullFloat(avg),
		Max: nullFloat(hi),
	}, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
