package sensor

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"mareo-monitor/internal/coordinator"
	"mareo-monitor/internal/entries"
	"mareo-monitor/pkg/fmi/sealevel"
)

type fakeSource struct {
	snap *coordinator.Snapshot
}

func (f *fakeSource) Snapshot() (coordinator.Snapshot, bool) {
	if f.snap == nil {
		return coordinator.Snapshot{}, false
	}
	return *f.snap, true
}


func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var hanko = entries.Entry{
	EntryID:  "e1",
	UniqueID: "134253",
	Title:    "Hanko Pikku Kolalahti",
	Data:     entries.Data{FMISID: 134253, Name: "Hanko"},
}

func snapshot(points ...sealevel.Point) *coordinator.Snapshot {
	return &coordinator.Snapshot{Points: points, FetchedAt: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
}

func TestIdentity(t *testing.T) {
	s := New(hanko, &fakeSource{}, quietLogger())

	if s.Name() != "Hanko Pikku Kolalahti Sea Level" {
		t.Errorf("Unexpected name %q", s.Name())
	}
	if s.UniqueID() != "134253_sea_level" {
		t.Errorf("Unexpected unique id %q", s.UniqueID())
	}
	if s.EntityID() != "sensor.hanko_pikku_kolalahti_sea_level" {
		t.Errorf("Unexpected entity id %q", s.EntityID())
	}

	untitled := hanko
	untitled.Title = ""
	if got := New(untitled, &fakeSource{}, quietLogger()).Name(); got != "Hanko Sea Level" {
		t.Errorf("Expected fallback to entry name, got %q", got)
	}
}

func TestStateUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
	}{
		{name: "No_Snapshot", source: &fakeSource{}},
		{name: "Empty_Snapshot", source: &fakeSource{snap: snapshot()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(hanko, tt.source, quietLogger())
			if s.State() != StateUnavailable {
				t.Errorf("Expected %q, got %q", StateUnavailable, s.State())
			}
			if attrs := s.Attributes(); len(attrs) != 0 {
				t.Errorf("Expected no attributes, got %v", attrs)
			}
		})
	}
}

func TestStateAndAttributes(t *testing.T) {
	src := &fakeSource{snap: snapshot(
		sealevel.Point{Time: "2026-10-19T08:00:00Z", Height: "12.4"},
		sealevel.Point{Time: "2026-10-19T09:00:00Z", Height: "14.1"},
		sealevel.Point{Time: "2026-10-19T10:00:00Z", Height: "15.9"},
	)}
	s := New(hanko, src, quietLogger())

	if s.State() != "12.4" {
		t.Errorf("Expected state 12.4, got %q", s.State())
	}

	attrs := s.Attributes()
	if attrs[AttrTime] != "2026-10-19T08:00:00Z" {
		t.Errorf("Unexpected time attribute %v", attrs[AttrTime])
	}
	if attrs[AttrAttribution] != Attribution {
		t.Errorf("Unexpected attribution %v", attrs[AttrAttribution])
	}
	forecasts, ok := attrs[AttrForecasts].([]Forecast)
	if !ok || len(forecasts) != 2 {
		t.Fatalf("Expected 2 forecasts, got %v", attrs[AttrForecasts])
	}
	if forecasts[0] != (Forecast{Time: "2026-10-19T09:00:00Z", Height: "14.1"}) {
		t.Errorf("Unexpected first forecast %+v", forecasts[0])
	}
}

func TestSinglePointHasEmptyForecasts(t *testing.T) {
	src := &fakeSource{snap: snapshot(sealevel.Point{Time: "2026-10-19T08:00:00Z", Height: "-3.0"})}
	s := New(hanko, src, quietLogger())

	if s.State() != "-3.0" {
		t.Errorf("Expected state -3.0, got %q", s.State())
	}
	forecasts, ok := s.Attributes()[AttrForecasts].([]Forecast)
	if !ok || forecasts == nil || len(forecasts) != 0 {
		t.Errorf("Expected an empty forecast list, got %#v", s.Attributes()[AttrForecasts])
	}
}

func TestOrdering(t *testing.T) {
	t.Run("Sorted_By_Time", func(t *testing.T) {
		points := []sealevel.Point{
			{Time: "2026-10-19T10:00:00Z", Height: "3"},
			{Time: "2026-10-19T08:00:00Z", Height: "1"},
			{Time: "2026-10-19T11:00:00+02:00", Height: "2"},
		}
		src := &fakeSource{snap: snapshot(points...)}
		s := New(hanko, src, quietLogger())

		if s.State() != "1" {
			t.Errorf("Expected earliest height, got %q", s.State())
		}
		forecasts := s.Attributes()[AttrForecasts].([]Forecast)
		if forecasts[0].Height != "2" || forecasts[1].Height != "3" {
			t.Errorf("Unexpected order %+v", forecasts)
		}
		if points[0].Height != "3" {
			t.Error("Snapshot points must not be reordered in place")
		}
	})

	t.Run("Feed_Order_When_Unparseable", func(t *testing.T) {
		src := &fakeSource{snap: snapshot(
			sealevel.Point{Time: "later", Height: "3"},
			sealevel.Point{Time: "2026-10-19T08:00:00Z", Height: "1"},
		)}
		s := New(hanko, src, quietLogger())
		if s.State() != "3" {
			t.Errorf("Expected feed order, got %q", s.State())
		}
	})
}

func TestRender(t *testing.T) {
	src := &fakeSource{snap: snapshot(
		sealevel.Point{Time: "2026-10-19T08:00:00Z", Height: "12.4"},
		sealevel.Point{Time: "2026-10-19T09:00:00Z", Height: "14.1"},
	)}
	st := New(hanko, src, quietLogger()).Render()

	if st.State != "12.4" || st.Unit != "cm" || st.Icon != "mdi:waves" || st.StateClass != "measurement" {
		t.Errorf("Unexpected rendered state %+v", st)
	}
	if !st.Available || st.EntryID != "e1" || st.LastUpdated.IsZero() {
		t.Errorf("Unexpected metadata %+v", st)
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Attributes struct {
			Forecasts []Forecast `json:"FORECASTS"`
		} `json:"attributes"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Attributes.Forecasts) != 1 || decoded.Attributes.Forecasts[0].Height != "14.1" {
		t.Errorf("Unexpected JSON forecasts %+v", decoded.Attributes.Forecasts)
	}

	empty := New(hanko, &fakeSource{}, quietLogger()).Render()
	if empty.State != StateUnavailable || empty.Available || len(empty.Attributes) != 0 {
		t.Errorf("Unexpected empty render %+v", empty)
	}

	// A successful fetch of an empty feed still has nothing to show
	fetchedEmpty := New(hanko, &fakeSource{snap: snapshot()}, quietLogger()).Render()
	if fetchedEmpty.State != StateUnavailable || fetchedEmpty.Available {
		t.Errorf("Expected empty feed to render unavailable, got %+v", fetchedEmpty)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hanko Pikku Kolalahti Sea Level", "hanko_pikku_kolalahti_sea_level"},
		{"Föglö Degerby Sea Level", "foglo_degerby_sea_level"},
		{"Kaskinen Ådskär Sea Level", "kaskinen_adskar_sea_level"},
		{"  Pori -- Mäntyluoto  ", "pori_mantyluoto"},
		{"!!!", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
