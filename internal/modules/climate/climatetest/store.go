// Package climatetest builds throwaway observation stores for tests.
package climatetest

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

// OpenStore returns an in-memory store with the station and measurement
// tables. The pool is capped at one connection because every SQLite
// connection to ":memory:" is a separate database.
func OpenStore(t *testing.T, driver string) *sql.DB {
	t.Helper()
	db, err := sql.Open(driver, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	if _, err := db.Exec(repository.Schema); err != nil {
		t.Fatalf("exec schema: %v", err)
	}
	return db
}

// Seed inserts rows in slice order, so slice order is store-native order.
func Seed(t *testing.T, db *sql.DB, stations []types.Station, measurements []types.Measurement) {
	t.Helper()
	for _, s := range stations {
		_, err := db.Exec(
			`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`,
			s.Station, s.Name, s.Latitude, s.Longitude, s.Elevation,
		)
		if err != nil {
			t.Fatalf("insert station %q: %v", s.Station, err)
		}
	}
	for _, m := range measurements {
		_, err := db.Exec(
			`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`,
			m.Station, m.Date, m.Precipitation, m.Temperature,
		)
		if err != nil {
			t.Fatalf("insert measurement %s/%s: %v", m.Station, m.Date, err)
		}
	}
}

// F returns a pointer to v, for nullable columns.
func F(v float64) *float64 {
	return &v
}
