package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"surfsup-server/internal/metrics"
	"surfsup-server/internal/modules/climate/dates"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

// RecentDays is the length of the trailing window used by the "last 12
// months" queries. The window is anchored to the latest recorded date.
const RecentDays = 365

type Service struct {
	repository repository.ClimateRepository
	now        func() time.Time
}

// NewService returns the query engine. now supplies the wall clock used as the
// implicit end of open-ended ranges; nil means time.Now.
func NewService(repository repository.ClimateRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repository: repository, now: now}
}

func (s *Service) LatestObservationDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		var err error
		latest, err = latestObservationDate(ctx, sess)
		return err
	})
	if err != nil {
		return time.Time{}, classify("latest observation date", err)
	}
	return latest, nil
}

// RecentPrecipitation returns one value per date over the trailing year.
// When several stations report the same date, rows are applied in
// (date, store order) and a later non-null value replaces an earlier one; a
// null never replaces a reported value.
func (s *Service) RecentPrecipitation(ctx context.Context) (types.Precipitation, error) {
	rows, err := s.recentPrecipitation(ctx, "recent precipitation")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })

	out := make(types.Precipitation, len(rows))
	for _, row := range rows {
		prev, seen := out[row.Date]
		if seen && prev != nil && row.Precipitation == nil {
			continue
		}
		out[row.Date] = row.Precipitation
	}
	return out, nil
}

// RecentPrecipitationByStation returns every (date, station, value) row of the
// trailing year in store order, without collapsing same-date readings.
func (s *Service) RecentPrecipitationByStation(ctx context.Context) ([]types.StationPrecipitation, error) {
	return s.recentPrecipitation(ctx, "recent precipitation by station")
}

func (s *Service) recentPrecipitation(ctx context.Context, op string) ([]types.StationPrecipitation, error) {
	var rows []types.StationPrecipitation
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		latest, err := latestObservationDate(ctx, sess)
		if err != nil {
			return err
		}
		from, to := dates.TrailingWindow(latest, RecentDays)
		rows, err = sess.GetPrecipitation(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return rows, nil
}

func (s *Service) ListStations(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		var err error
		ids, err = sess.GetStationIDs(ctx)
		return err
	})
	if err != nil {
		return nil, classify("list stations", err)
	}
	return ids, nil
}

// MostActiveStation returns the station with the most measurement rows. Ties
// go to the lexicographically smallest identifier.
func (s *Service) MostActiveStation(ctx context.Context) (types.StationActivity, error) {
	var active types.StationActivity
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		var err error
		active, err = mostActiveStation(ctx, sess)
		return err
	})
	if err != nil {
		return types.StationActivity{}, classify("most active station", err)
	}
	return active, nil
}

// MostActiveStationRecentTemperatures returns the non-null temperature
// observations of the most active station inside the dataset-wide trailing
// year, in store order.
func (s *Service) MostActiveStationRecentTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	var out []types.TemperatureObservation
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		active, err := mostActiveStation(ctx, sess)
		if err != nil {
			return err
		}
		latest, err := latestObservationDate(ctx, sess)
		if err != nil {
			return err
		}
		from, to := dates.TrailingWindow(latest, RecentDays)
		out, err = sess.GetTemperatures(ctx, active.Station, from, to)
		return err
	})
	if err != nil {
		return nil, classify("most active station temperatures", err)
	}
	return out, nil
}

// TemperatureStats aggregates temperatures with start <= date <= end. A nil
// end means today (UTC). An empty match, including start > end, yields a
// record of nils rather than an error.
func (s *Service) TemperatureStats(ctx context.Context, start time.Time, end *time.Time) (types.TemperatureStats, error) {
	to := dates.Today(s.now())
	if end != nil {
		to = *end
	}
	var stats types.TemperatureStats
	err := s.repository.WithSession(ctx, func(sess repository.Session) error {
		var err error
		stats, err = sess.GetTemperatureStats(ctx, start, to)
		return err
	})
	if err != nil {
		return types.TemperatureStats{}, classify("temperature stats", err)
	}
	return stats, nil
}

func latestObservationDate(ctx context.Context, sess repository.Session) (time.Time, error) {
	raw, ok, err := sess.GetLatestMeasurementDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, types.ErrEmptyDataset
	}
	latest, err := dates.Parse("latest", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored measurement date: %w", err)
	}
	return latest, nil
}

func mostActiveStation(ctx context.Context, sess repository.Session) (types.StationActivity, error) {
	active, ok, err := sess.GetMostActiveStation(ctx)
	if err != nil {
		return types.StationActivity{}, err
	}
	if !ok {
		return types.StationActivity{}, types.ErrEmptyDataset
	}
	return active, nil
}

// classify tags every failure that is not an empty dataset as a store failure.
func classify(op string, err error) error {
	if errors.Is(err, types.ErrEmptyDataset) {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreUnavailable, err)
}
