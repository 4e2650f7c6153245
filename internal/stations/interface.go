package stations

import (
	"context"
	"errors"

	fmistations "mareo-monitor/pkg/fmi/stations"
)

// ErrStationNotFound is returned when neither the built-in table nor FMI knows a station
var ErrStationNotFound = errors.New("station not found")

// Manager defines the interface for mareograph station metadata
type Manager interface {
	// GetAllStations returns all known stations, built-in ones first
	GetAllStations() []Station

	// GetStation returns a known station by FMISID without touching the network
	GetStation(fmisid string) (Station, bool)

	// GetStationsByRegion returns all known stations in a specific region
	GetStationsByRegion(region string) []Station

	// Resolve looks the station up locally and falls back to the FMI stations query
	Resolve(ctx context.Context, fmisid string) (Station, error)
}

// Station represents a mareograph with its metadata
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RemoteLookup queries FMI for station metadata
type RemoteLookup interface {
	Execute(ctx context.Context, req fmistations.Request) (*fmistations.Response, error)
}
