package controller

import (
	"errors"
	"io"
	"net/http"

	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
	"surfsup-server/internal/utils"
)

var indexRoutes = []views.RouteDoc{
	{Path: "/api/v1.0/precipitation", Description: "Last 12 months of precipitation data"},
	{Path: "/api/v1.0/precipitation/stations", Description: "Last 12 months of precipitation data, one entry per station and day"},
	{Path: "/api/v1.0/stations", Description: "List of weather stations"},
	{Path: "/api/v1.0/stations/most-active", Description: "The station with the most recorded measurements"},
	{Path: "/api/v1.0/tobs", Description: "Temperature observations of the most active station for the last year"},
	{Path: "/api/v1.0/<start>", Description: "Min, Avg, and Max temperatures from the start date until today"},
	{Path: "/api/v1.0/<start>/<end>", Description: "Min, Avg, and Max temperatures for a date range (inclusive)"},
}

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := &views.IndexData{Title: "Welcome to the Climate API!", Routes: indexRoutes}
	utils.WriteHTML(w, http.StatusOK, func(out io.Writer) error {
		return views.RenderIndex(out, data)
	})
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.RecentPrecipitation(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handlePrecipitationByStation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.RecentPrecipitationByStation(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.ListStations(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load stations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleMostActiveStation(w http.ResponseWriter, r *http.Request) {
	active, err := c.service.MostActiveStation(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load most active station")
		return
	}
	utils.WriteJSON(w, http.StatusOK, active)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.MostActiveStationRecentTemperatures(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load temperature observations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleTemperatureRange(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRangeParams(r)
	if err != nil {
		c.logger.Debug("rejected date range", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.TemperatureStats(r.Context(), start, end)
	if err != nil {
		c.writeServiceError(w, r, err, "failed to load temperature statistics")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// writeServiceError logs the full error and answers with a message that does
// not expose store details.
func (c *climateControllerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, types.ErrEmptyDataset) {
		msg = "no observations recorded"
	}
	c.logger.Error("climate query failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	utils.WriteError(w, http.StatusInternalServerError, msg)
}
