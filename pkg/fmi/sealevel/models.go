package sealevel

import (
	"errors"
	"time"

	"mareo-monitor/pkg/fmi"
)

// StoredQueryID is the FMI stored query for point sea level forecasts
const StoredQueryID = "fmi::forecast::sealevel::point::simple"

// Parameter names found in the forecast feed
const (
	ParamSeaLevel      = "SeaLevel"
	ParamSeaLevelN2000 = "SeaLevelN2000"
)

// ErrMalformedFeed is returned when the response body is not a readable feature collection
var ErrMalformedFeed = errors.New("malformed sea level feed")

// Point is a single forecast entry as provided by the feed
type Point struct {
	Time   string `json:"time"`
	Height string `json:"height"`
}

// Request represents a request for a sea level forecast
type Request struct {
	Location  fmi.Coordinates
	StartTime time.Time

	// Timestep in minutes between forecast points, zero leaves the FMI default
	Timestep int

	UseGzip bool
}

// Response represents the parsed forecast
type Response struct {
	Points []Point `json:"points"`
	Stats  Stats   `json:"stats"`
}

// Stats provides a summary of a parse
type Stats struct {
	Records      int           `json:"records"`
	Kept         int           `json:"kept"`
	SkippedN2000 int           `json:"skipped_n2000"`
	Unsupported  int           `json:"unsupported"`
	Malformed    int           `json:"malformed"`
	Duration     time.Duration `json:"duration"`
}
