package fmi

import (
	"fmt"
	"strconv"
)

// Coordinates represents geographic location
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinates are within WGS84 bounds
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// LatLon returns the coordinates in the "lat,lon" form used by stored queries
func (c Coordinates) LatLon() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// BBox represents a geographic bounding box
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// String returns the bounding box as a comma-separated string for API queries
func (b BBox) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Contains reports whether c lies inside the box
func (b BBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// MareographNetworkID is the FMI network id of the tide gauge network
const MareographNetworkID = "128"

// FinlandBBox covers all of Finland including its territorial waters
var FinlandBBox = BBox{19.08, 59.45, 31.59, 70.09}
