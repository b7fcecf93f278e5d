package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"surfsup-server/internal/modules/climate/climatetest"
	"surfsup-server/internal/modules/climate/dates"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

var f = climatetest.F

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse("test", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func withSession(t *testing.T, repo repository.ClimateRepository, fn func(repository.Session) error) {
	t.Helper()
	if err := repo.WithSession(context.Background(), fn); err != nil {
		t.Fatalf("WithSession: %v", err)
	}
}

var seedStations = []types.Station{
	{Station: "USC00519397", Name: "WAIKIKI 717.2, HI US", Latitude: f(21.2716), Longitude: f(-157.8168), Elevation: f(3)},
	{Station: "USC00513117", Name: "KANEOHE 838.1, HI US", Latitude: f(21.4234), Longitude: f(-157.8015), Elevation: f(14.6)},
	{Station: "USC00519281", Name: "WAIHEE 837.5, HI US", Latitude: f(21.45167), Longitude: f(-157.84889), Elevation: f(32.9)},
}

var seedMeasurements = []types.Measurement{
	{Station: "USC00519397", Date: "2016-08-22", Precipitation: f(0.4), Temperature: f(78)},
	{Station: "USC00519281", Date: "2016-08-23", Precipitation: f(1.79), Temperature: f(77)},
	{Station: "USC00519281", Date: "2017-08-22", Precipitation: nil, Temperature: f(80)},
	{Station: "USC00513117", Date: "2017-08-23", Precipitation: f(0.02), Temperature: nil},
	{Station: "USC00519281", Date: "2017-08-23", Precipitation: f(0.0), Temperature: f(79)},
}

func TestNewRepository(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite3")
	if repository.NewRepository(db) == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestWithSession_releasesConnection(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite3")
	repo := repository.NewRepository(db)

	t.Run("on success", func(t *testing.T) {
		withSession(t, repo, func(s repository.Session) error {
			if got := db.Stats().InUse; got != 1 {
				t.Errorf("InUse inside session = %d; want 1", got)
			}
			return nil
		})
		if got := db.Stats().InUse; got != 0 {
			t.Errorf("InUse after session = %d; want 0", got)
		}
	})

	t.Run("on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.WithSession(context.Background(), func(repository.Session) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("WithSession err = %v; want %v", err, boom)
		}
		if got := db.Stats().InUse; got != 0 {
			t.Errorf("InUse after failed session = %d; want 0", got)
		}
	})

	t.Run("on panic", func(t *testing.T) {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic to propagate")
				}
			}()
			_ = repo.WithSession(context.Background(), func(repository.Session) error { panic("mid-query") })
		}()
		if got := db.Stats().InUse; got != 0 {
			t.Errorf("InUse after panicking session = %d; want 0", got)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := repo.WithSession(ctx, func(repository.Session) error {
			t.Error("fn must not run without a connection")
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v; want context.Canceled", err)
		}
	})
}

func TestGetLatestMeasurementDate(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			latest, ok, err := s.GetLatestMeasurementDate(context.Background())
			if err != nil {
				t.Fatalf("GetLatestMeasurementDate: %v", err)
			}
			if ok || latest != "" {
				t.Errorf("got (%q, %v); want (\"\", false)", latest, ok)
			}
			return nil
		})
	})

	t.Run("with data", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		climatetest.Seed(t, db, seedStations, seedMeasurements)
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			latest, ok, err := s.GetLatestMeasurementDate(context.Background())
			if err != nil {
				t.Fatalf("GetLatestMeasurementDate: %v", err)
			}
			if !ok || latest != "2017-08-23" {
				t.Errorf("got (%q, %v); want (2017-08-23, true)", latest, ok)
			}
			return nil
		})
	})
}

func TestGetStationIDs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			ids, err := s.GetStationIDs(context.Background())
			if err != nil {
				t.Fatalf("GetStationIDs: %v", err)
			}
			if ids == nil || len(ids) != 0 {
				t.Errorf("ids = %#v; want empty non-nil slice", ids)
			}
			return nil
		})
	})

	t.Run("store-native order", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		climatetest.Seed(t, db, seedStations, nil)
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			ids, err := s.GetStationIDs(context.Background())
			if err != nil {
				t.Fatalf("GetStationIDs: %v", err)
			}
			want := []string{"USC00519397", "USC00513117", "USC00519281"}
			if len(ids) != len(want) {
				t.Fatalf("ids = %v; want %v", ids, want)
			}
			for i := range want {
				if ids[i] != want[i] {
					t.Errorf("ids[%d] = %q; want %q", i, ids[i], want[i])
				}
			}
			return nil
		})
	})
}

func TestGetPrecipitation(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite3")
	climatetest.Seed(t, db, seedStations, seedMeasurements)

	withSession(t, repository.NewRepository(db), func(s repository.Session) error {
		got, err := s.GetPrecipitation(context.Background(), mustDate(t, "2016-08-23"), mustDate(t, "2017-08-23"))
		if err != nil {
			t.Fatalf("GetPrecipitation: %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("got %d rows; want 4 (start bound inclusive, 2016-08-22 excluded): %+v", len(got), got)
		}
		if got[0].Date != "2016-08-23" || got[0].Station != "USC00519281" || got[0].Precipitation == nil || *got[0].Precipitation != 1.79 {
			t.Errorf("first row = %+v; want 2016-08-23 USC00519281 1.79", got[0])
		}
		if got[1].Date != "2017-08-22" || got[1].Precipitation != nil {
			t.Errorf("second row = %+v; want 2017-08-22 with null precipitation", got[1])
		}
		if got[3].Precipitation == nil || *got[3].Precipitation != 0 {
			t.Errorf("last row = %+v; want explicit zero", got[3])
		}
		return nil
	})
}

func TestGetMostActiveStation(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			_, ok, err := s.GetMostActiveStation(context.Background())
			if err != nil {
				t.Fatalf("GetMostActiveStation: %v", err)
			}
			if ok {
				t.Error("ok = true; want false on empty store")
			}
			return nil
		})
	})

	t.Run("highest count wins", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		climatetest.Seed(t, db, seedStations, seedMeasurements)
		withSession(t, repository.NewRepository(db), func(s repository.Session) error {
			got, ok, err := s.GetMostActiveStation(context.Background())
			if err != nil || !ok {
				t.Fatalf("GetMostActiveStation: ok=%v err=%v", ok, err)
			}
			if got.Station != "USC00519281" || got.Count != 3 {
				t.Errorf("got %+v; want USC00519281 with 3", got)
			}
			return nil
		})
	})

	t.Run("tie goes to smallest identifier", func(t *testing.T) {
		db := climatetest.OpenStore(t, "sqlite3")
		climatetest.Seed(t, db, nil, []types.Measurement{
			{Station: "USC00519397", Date: "2017-01-01", Temperature: f(70)},
			{Station: "USC00513117", Date: "2017-01-01", Temperature: f(71)},
			{Station: "USC00519397", Date: "2017-01-02", Temperature: f(72)},
			{Station: "USC00513117", Date: "2017-01-02", Temperature: f(73)},
			{Station: "", Date: "2017-01-03"},
			{Station: "", Date: "2017-01-04"},
			{Station: "", Date: "2017-01-05"},
		})
		_, err := db.Exec(`UPDATE measurement SET station = NULL WHERE station = ''`)
		if err != nil {
			t.Fatalf("null out stations: %v", err)
		}
		repo := repository.NewRepository(db)
		for i := 0; i < 3; i++ {
			withSession(t, repo, func(s repository.Session) error {
				got, ok, err := s.GetMostActiveStation(context.Background())
				if err != nil || !ok {
					t.Fatalf("GetMostActiveStation: ok=%v err=%v", ok, err)
				}
				if got.Station != "USC00513117" || got.Count != 2 {
					t.Errorf("call %d: got %+v; want USC00513117 with 2", i, got)
				}
				return nil
			})
		}
	})
}

func TestGetTemperatures(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite3")
	climatetest.Seed(t, db, seedStations, seedMeasurements)

	withSession(t, repository.NewRepository(db), func(s repository.Session) error {
		got, err := s.GetTemperatures(context.Background(), "USC00519281", mustDate(t, "2016-08-23"), mustDate(t, "2017-08-23"))
		if err != nil {
			t.Fatalf("GetTemperatures: %v", err)
		}
		want := []types.TemperatureObservation{
			{Date: "2016-08-23", Temperature: 77},
			{Date: "2017-08-22", Temperature: 80},
			{Date: "2017-08-23", Temperature: 79},
		}
		if len(got) != len(want) {
			t.Fatalf("got %+v; want %+v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d = %+v; want %+v", i, got[i], want[i])
			}
		}

		other, err := s.GetTemperatures(context.Background(), "USC00513117", mustDate(t, "2016-08-23"), mustDate(t, "2017-08-23"))
		if err != nil {
			t.Fatalf("GetTemperatures: %v", err)
		}
		if len(other) != 0 {
			t.Errorf("null temperatures must be skipped; got %+v", other)
		}
		return nil
	})
}

func TestGetTemperatureStats(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite3")
	climatetest.Seed(t, db, seedStations, seedMeasurements)

	tests := []struct {
		name          string
		from, to      string
		wantNil       bool
		min, avg, max float64
	}{
		{name: "whole range", from: "2016-01-01", to: "2017-12-31", min: 77, avg: 78.5, max: 80},
		{name: "inclusive single day", from: "2017-08-23", to: "2017-08-23", min: 79, avg: 79, max: 79},
		{name: "null temperature ignored", from: "2017-08-22", to: "2017-08-23", min: 79, avg: 79.5, max: 80},
		{name: "no rows", from: "2017-01-01", to: "2017-01-10", wantNil: true},
		{name: "start after end", from: "2017-08-23", to: "2016-08-22", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withSession(t, repository.NewRepository(db), func(s repository.Session) error {
				got, err := s.GetTemperatureStats(context.Background(), mustDate(t, tt.from), mustDate(t, tt.to))
				if err != nil {
					t.Fatalf("GetTemperatureStats: %v", err)
				}
				if tt.wantNil {
					if got.Min != nil || got.Avg != nil || got.Max != nil {
						t.Errorf("got %+v; want all nil", got)
					}
					return nil
				}
				if got.Min == nil || got.Avg == nil || got.Max == nil {
					t.Fatalf("got %+v; want all set", got)
				}
				if *got.Min != tt.min || *got.Avg != tt.avg || *got.Max != tt.max {
					t.Errorf("got (%v, %v, %v); want (%v, %v, %v)", *got.Min, *got.Avg, *got.Max, tt.min, tt.avg, tt.max)
				}
				return nil
			})
		})
	}
}

func TestPureGoDriver(t *testing.T) {
	db := climatetest.OpenStore(t, "sqlite")
	climatetest.Seed(t, db, seedStations, seedMeasurements)

	withSession(t, repository.NewRepository(db), func(s repository.Session) error {
		ctx := context.Background()
		latest, ok, err := s.GetLatestMeasurementDate(ctx)
		if err != nil || !ok || latest != "2017-08-23" {
			t.Errorf("GetLatestMeasurementDate = (%q, %v, %v)", latest, ok, err)
		}
		stats, err := s.GetTemperatureStats(ctx, mustDate(t, "2016-01-01"), mustDate(t, "2017-12-31"))
		if err != nil {
			t.Fatalf("GetTemperatureStats: %v", err)
		}
		if stats.Avg == nil || *stats.Avg != 78.5 {
			t.Errorf("avg = %v; want 78.5", stats.Avg)
		}
		active, ok, err := s.GetMostActiveStation(ctx)
		if err != nil || !ok || active.Station != "USC00519281" {
			t.Errorf("GetMostActiveStation = (%+v, %v, %v)", active, ok, err)
		}
		return nil
	})
}
