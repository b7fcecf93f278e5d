package controller

import (
	"net/http"
	"time"

	"surfsup-server/internal/modules/climate/dates"
)

// parseRangeParams reads the {start} and optional {end} path segments. A
// missing end is returned as nil.
func parseRangeParams(r *http.Request) (start time.Time, end *time.Time, err error) {
	start, err = dates.Parse("start", r.PathValue("start"))
	if err != nil {
		return time.Time{}, nil, err
	}

	raw := r.PathValue("end")
	if raw == "" {
		return start, nil, nil
	}
	e, err := dates.Parse("end", raw)
	if err != nil {
		return time.Time{}, nil, err
	}
	return start, &e, nil
}
