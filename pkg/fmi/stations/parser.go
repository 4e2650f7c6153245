package stations

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"mareo-monitor/pkg/fmi"
)

const (
	fmisidCodeSpace = "http://xml.fmi.fi/namespace/stationcode/fmisid"
	nameCodeSpace   = "http://xml.fmi.fi/namespace/locationcode/name"
	regionCodeSpace = "http://xml.fmi.fi/namespace/location/region"
)

// Parser handles parsing of FMI station XML responses
type Parser struct{}

// NewParser creates a new stations parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a stations feature collection. Facilities without an id or
// with coordinates outside Finland are dropped.
func (p *Parser) Parse(r io.Reader) (*Response, error) {
	var collection facilityCollection
	if err := xml.NewDecoder(r).Decode(&collection); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}

	stations := make([]Station, 0, len(collection.Members))
	for _, member := range collection.Members {
		if station := convertFacility(member.Facility); station != nil {
			stations = append(stations, *station)
		}
	}

	return &Response{
		Stations: stations,
		Count:    len(stations),
	}, nil
}

func convertFacility(f *monitoringFacility) *Station {
	if f == nil || f.GmlID == "" {
		return nil
	}

	loc, ok := parsePos(f.Pos)
	if !ok || !fmi.FinlandBBox.Contains(loc) {
		return nil
	}

	startDate, _ := time.Parse(time.RFC3339, strings.TrimSpace(f.StartDate))

	station := &Station{
		ID:        f.GmlID,
		FMISID:    extractFMISID(f.Identifier),
		Name:      pickName(f.Names, nameCodeSpace),
		Region:    findName(f.Names, regionCodeSpace),
		Location:  loc,
		StartDate: startDate,
	}
	for _, bt := range f.BelongsTo {
		if title := strings.TrimSpace(bt.Title); title != "" {
			station.Networks = append(station.Networks, title)
		}
	}
	return station
}

// parsePos reads a "lat lon" gml:pos value
func parsePos(pos string) (fmi.Coordinates, bool) {
	parts := strings.Fields(pos)
	if len(parts) < 2 {
		return fmi.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return fmi.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmi.Coordinates{}, false
	}
	return fmi.Coordinates{Lat: lat, Lon: lon}, true
}

func findName(names []codeSpaceValue, codeSpace string) string {
	for _, n := range names {
		if n.CodeSpace == codeSpace {
			return strings.TrimSpace(n.Value)
		}
	}
	return ""
}

// pickName prefers the given code space and falls back to the first name
func pickName(names []codeSpaceValue, codeSpace string) string {
	if name := findName(names, codeSpace); name != "" {
		return name
	}
	if len(names) > 0 {
		return strings.TrimSpace(names[0].Value)
	}
	return ""
}

func extractFMISID(identifier codeSpaceValue) string {
	value := strings.TrimSpace(identifier.Value)
	if identifier.CodeSpace == fmisidCodeSpace {
		return value
	}
	if _, err := strconv.ParseUint(value, 10, 64); err == nil {
		return value
	}
	return ""
}
