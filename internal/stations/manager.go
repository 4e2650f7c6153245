package stations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mareo-monitor/pkg/fmi"
	fmistations "mareo-monitor/pkg/fmi/stations"
)

// manager implements the Station Manager interface
type manager struct {
	stations         []Station
	stationsByID     map[string]Station
	stationsByRegion map[string][]Station
	remote           RemoteLookup
	logger           *slog.Logger
	mu               sync.RWMutex
}

// NewManager creates a station manager seeded with the Finnish mareograph
// network. remote may be nil, in which case only built-in stations resolve.
func NewManager(remote RemoteLookup, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &manager{
		stations:         make([]Station, 0),
		stationsByID:     make(map[string]Station),
		stationsByRegion: make(map[string][]Station),
		remote:           remote,
		logger:           logger,
	}

	m.loadDefaultStations()

	return m
}

// GetAllStations returns all available stations
func (m *manager) GetAllStations() []Station {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	result := make([]Station, len(m.stations))
	copy(result, m.stations)
	return result
}

// GetStation returns a specific station by FMISID
func (m *manager) GetStation(fmisid string) (Station, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	station, exists := m.stationsByID[fmisid]
	return station, exists
}

// GetStationsByRegion returns all stations in a specific region
func (m *manager) GetStationsByRegion(region string) []Station {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stations, exists := m.stationsByRegion[region]
	if !exists {
		return []Station{}
	}

	result := make([]Station, len(stations))
	copy(result, stations)
	return result
}

// Resolve returns the station for fmisid. Remote hits are cached for the
// lifetime of the manager.
func (m *manager) Resolve(ctx context.Context, fmisid string) (Station, error) {
	if station, ok := m.GetStation(fmisid); ok {
		return station, nil
	}
	if m.remote == nil {
		return Station{}, ErrStationNotFound
	}

	resp, err := m.remote.Execute(ctx, fmistations.Request{NetworkID: fmi.MareographNetworkID})
	if err != nil {
		return Station{}, fmt.Errorf("failed to query stations: %w", err)
	}

	found := resp.FindByFMISID(fmisid)
	if found == nil {
		m.logger.Debug("station not in FMI mareograph network", "fmisid", fmisid, "count", resp.Count)
		return Station{}, ErrStationNotFound
	}

	station := Station{
		ID:        found.FMISID,
		Name:      found.Name,
		Region:    found.Region,
		Latitude:  found.Location.Lat,
		Longitude: found.Location.Lon,
	}
	m.add(station)
	m.logger.Info("resolved station from FMI", "fmisid", fmisid, "name", station.Name)

	return station, nil
}

func (m *manager) add(station Station) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stationsByID[station.ID]; exists {
		return
	}
	m.stations = append(m.stations, station)
	m.stationsByID[station.ID] = station
	m.stationsByRegion[station.Region] = append(m.stationsByRegion[station.Region], station)
}

// loadDefaultStations loads the FMI tide gauge network
func (m *manager) loadDefaultStations() {
	defaultStations := []Station{
		// Gulf of Finland
		{ID: "134254", Name: "Hamina Pitäjänsaari", Region: "Hamina", Latitude: 60.5630, Longitude: 27.1792},
		{ID: "132310", Name: "Helsinki Kaivopuisto", Region: "Helsinki", Latitude: 60.1536, Longitude: 24.9562},
		{ID: "134253", Name: "Hanko Pikku Kolalahti", Region: "Hanko", Latitude: 59.8225, Longitude: 22.9765},

		// Archipelago Sea
		{ID: "134252", Name: "Föglö Degerby", Region: "Föglö", Latitude: 60.0319, Longitude: 20.3848},
		{ID: "134225", Name: "Turku Ruissalo Saaronniemi", Region: "Turku", Latitude: 60.4284, Longitude: 22.1005},

		// Bothnian Sea
		{ID: "134224", Name: "Rauma Petäjäs", Region: "Rauma", Latitude: 61.1335, Longitude: 21.4258},
		{ID: "134266", Name: "Pori Mäntyluoto Kallo", Region: "Pori", Latitude: 61.5943, Longitude: 21.4630},
		{ID: "134251", Name: "Kaskinen Ådskär", Region: "Kaskinen", Latitude: 62.3440, Longitude: 21.2148},

		// Bothnian Bay
		{ID: "134223", Name: "Vaasa Vaskiluoto", Region: "Vaasa", Latitude: 63.0815, Longitude: 21.5712},
		{ID: "134250", Name: "Pietarsaari Leppäluoto", Region: "Pietarsaari", Latitude: 63.7086, Longitude: 22.6896},
		{ID: "100540", Name: "Raahe Lapaluoto", Region: "Raahe", Latitude: 64.6662, Longitude: 24.4073},
		{ID: "134248", Name: "Oulu Toppila", Region: "Oulu", Latitude: 65.0403, Longitude: 25.4182},
		{ID: "100539", Name: "Kemi Ajos", Region: "Kemi", Latitude: 65.6734, Longitude: 24.5153},
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stations = defaultStations

	m.stationsByID = make(map[string]Station)
	m.stationsByRegion = make(map[string][]Station)

	for _, station := range defaultStations {
		m.stationsByID[station.ID] = station
		m.stationsByRegion[station.Region] = append(m.stationsByRegion[station.Region], station)
	}
}
