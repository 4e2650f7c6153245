package sensor

import (
	"log/slog"
	"sort"
	"strconv"
	"time"

	"mareo-monitor/internal/coordinator"
	"mareo-monitor/internal/entries"
	"mareo-monitor/pkg/fmi/sealevel"
)

const (
	StateUnavailable      = "Unavailable"
	UnitCentimeters       = "cm"
	Icon                  = "mdi:waves"
	StateClassMeasurement = "measurement"
	Attribution           = "Weather Data provided by FMI"

	typeSeaLevel = "sea_level"
	typeName     = "Sea Level"
)

// Attribute keys
const (
	AttrTime        = "time"
	AttrForecasts   = "FORECASTS"
	AttrAttribution = "attribution"
)

// Source is the coordinator side the sensor reads from
type Source interface {
	Snapshot() (coordinator.Snapshot, bool)
}

// Forecast is one upcoming sea level value
type Forecast struct {
	Time   string `json:"time"`
	Height string `json:"height"`
}

// State is the rendered entity
type State struct {
	EntityID    string         `json:"entity_id"`
	UniqueID    string         `json:"unique_id"`
	EntryID     string         `json:"entry_id"`
	Name        string         `json:"name"`
	State       string         `json:"state"`
	Unit        string         `json:"unit_of_measurement"`
	Icon        string         `json:"icon"`
	StateClass  string         `json:"state_class"`
	// Available reports whether State holds a level, matching the MQTT
	// availability topic. Fetch health is on the coordinator status.
	Available   bool           `json:"available"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated,omitempty"`
}

// Sensor exposes the snapshot of one coordinator as a sea level entity.
// It is read-only: every read recomputes the view from the snapshot.
type Sensor struct {
	entryID    string
	title      string
	clientName string
	fmisid     int
	source     Source
	logger     *slog.Logger
}

func New(entry entries.Entry, source Source, logger *slog.Logger) *Sensor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sensor{
		entryID:    entry.EntryID,
		title:      entry.Title,
		clientName: entry.Data.Name,
		fmisid:     entry.Data.FMISID,
		source:     source,
		logger:     logger,
	}
}

// Name is "<station> Sea Level", falling back to the entry name
func (s *Sensor) Name() string {
	if s.title != "" {
		return s.title + " " + typeName
	}
	return s.clientName + " " + typeName
}

func (s *Sensor) UniqueID() string {
	return strconv.Itoa(s.fmisid) + "_" + typeSeaLevel
}

func (s *Sensor) EntityID() string {
	return "sensor." + Slugify(s.Name())
}

func (s *Sensor) EntryID() string {
	return s.entryID
}

// State returns the current height or Unavailable
func (s *Sensor) State() string {
	view := s.view()
	if len(view) == 0 {
		s.logger.Debug("sea level sensor is unavailable", "entity_id", s.EntityID())
		return StateUnavailable
	}
	return view[0].Height
}

// Attributes returns time, FORECASTS and attribution, or an empty map without data
func (s *Sensor) Attributes() map[string]any {
	return attributes(s.view())
}

// Render returns the full entity in one consistent read of the snapshot
func (s *Sensor) Render() State {
	snap, ok := s.source.Snapshot()
	view := orderedView(snap.Points)

	st := State{
		EntityID:   s.EntityID(),
		UniqueID:   s.UniqueID(),
		EntryID:    s.entryID,
		Name:       s.Name(),
		State:      StateUnavailable,
		Unit:       UnitCentimeters,
		Icon:       Icon,
		StateClass: StateClassMeasurement,
		Attributes: attributes(view),
	}
	if ok {
		st.LastUpdated = snap.FetchedAt
	}
	if len(view) > 0 {
		st.State = view[0].Height
		st.Available = true
	}
	return st
}

func (s *Sensor) view() []sealevel.Point {
	snap, ok := s.source.Snapshot()
	if !ok {
		return nil
	}
	return orderedView(snap.Points)
}

func attributes(view []sealevel.Point) map[string]any {
	if len(view) == 0 {
		return map[string]any{}
	}

	forecasts := make([]Forecast, 0, len(view)-1)
	for _, p := range view[1:] {
		forecasts = append(forecasts, Forecast{Time: p.Time, Height: p.Height})
	}

	return map[string]any{
		AttrTime:        view[0].Time,
		AttrForecasts:   forecasts,
		AttrAttribution: Attribution,
	}
}

// orderedView copies points and sorts the copy by timestamp when every
// timestamp is RFC 3339. Otherwise feed order is kept.
func orderedView(points []sealevel.Point) []sealevel.Point {
	if len(points) == 0 {
		return nil
	}

	view := make([]sealevel.Point, len(points))
	copy(view, points)

	times := make([]time.Time, len(view))
	for i, p := range view {
		t, err := time.Parse(time.RFC3339, p.Time)
		if err != nil {
			return view
		}
		times[i] = t
	}

	idx := make([]int, len(view))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	sorted := make([]sealevel.Point, len(view))
	for i, j := range idx {
		sorted[i] = view[j]
	}
	return sorted
}
