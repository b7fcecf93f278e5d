package types

// Station is a row of the station table. Only the identifier is served by the
// API; the descriptive columns are kept for the typed schema.
type Station struct {
	ID        int64    `json:"-"`
	Station   string   `json:"station"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// Measurement is a row of the measurement table.
type Measurement struct {
	ID            int64    `json:"-"`
	Station       string   `json:"station"`
	Date          string   `json:"date"`
	Precipitation *float64 `json:"prcp"`
	Temperature   *float64 `json:"tobs"`
}

// Precipitation maps a YYYY-MM-DD date to the precipitation reported for it.
// A nil value means the day was recorded without a precipitation reading.
// encoding/json writes map keys sorted, so the object is in date order.
type Precipitation map[string]*float64

type StationPrecipitation struct {
	Date          string   `json:"date"`
	Station       string   `json:"station"`
	Precipitation *float64 `json:"precipitation"`
}

type StationActivity struct {
	Station string `json:"station"`
	Count   int64  `json:"count"`
}

type TemperatureObservation struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
}

// TemperatureStats is the aggregate record of a date-range query. All three
// fields are nil when no measurement matched.
type TemperatureStats struct {
	Min *float64 `json:"TMIN"`
	Avg *float64 `json:"TAVG"`
	Max *float64 `json:"TMAX"`
}
