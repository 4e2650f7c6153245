package stations

import (
	"time"

	"mareo-monitor/pkg/fmi"
)

// StoredQueryID is the FMI stored query returning station metadata
const StoredQueryID = "fmi::ef::stations"

// Station describes an FMI observation facility
type Station struct {
	ID        string          `json:"id"`
	FMISID    string          `json:"fmisid"`
	Name      string          `json:"name"`
	Region    string          `json:"region,omitempty"`
	Location  fmi.Coordinates `json:"coordinates"`
	StartDate time.Time       `json:"start_date"`
	Networks  []string        `json:"networks,omitempty"`
}

// Request selects which stations to list
type Request struct {
	BBox      *fmi.BBox
	NetworkID string
	UseGzip   bool
}

// Response represents the parsed response from FMI stations API
type Response struct {
	Stations []Station `json:"stations"`
	Count    int       `json:"count"`
}

// FindByFMISID returns the station with the given FMISID, or nil
func (r *Response) FindByFMISID(fmisid string) *Station {
	for i := range r.Stations {
		if r.Stations[i].FMISID == fmisid {
			return &r.Stations[i]
		}
	}
	return nil
}

// InNetwork reports whether the station belongs to a network with the given title
func (s Station) InNetwork(title string) bool {
	for _, n := range s.Networks {
		if n == title {
			return true
		}
	}
	return false
}
