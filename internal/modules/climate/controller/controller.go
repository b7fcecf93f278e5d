package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"surfsup-server/internal/modules/climate/types"
)

// ClimateService is the query engine as seen by the HTTP handlers.
type ClimateService interface {
	RecentPrecipitation(ctx context.Context) (types.Precipitation, error)
	RecentPrecipitationByStation(ctx context.Context) ([]types.StationPrecipitation, error)
	ListStations(ctx context.Context) ([]string, error)
	MostActiveStation(ctx context.Context) (types.StationActivity, error)
	MostActiveStationRecentTemperatures(ctx context.Context) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, start time.Time, end *time.Time) (types.TemperatureStats, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
	logger  *slog.Logger
}

func NewClimateController(service ClimateService, logger *slog.Logger) ClimateController {
	if logger == nil {
		logger = slog.Default()
	}
	return &climateControllerImpl{service: service, logger: logger}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/precipitation/stations", c.handlePrecipitationByStation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/stations/most-active", c.handleMostActiveStation)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleTemperatureRange)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleTemperatureRange)
}
