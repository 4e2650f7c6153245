//go:build integration

package fmi_test

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"mareo-monitor/pkg/fmi"
	"mareo-monitor/pkg/fmi/sealevel"
	"mareo-monitor/pkg/fmi/stations"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// TestMareographStationsIntegration fetches the tide gauge network from FMI
func TestMareographStationsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := stations.NewQuery(fmi.DefaultBaseURL, httpClient)
	resp, err := query.Execute(ctx, stations.Request{NetworkID: fmi.MareographNetworkID, UseGzip: true})
	if err != nil {
		t.Fatalf("Failed to fetch stations: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("No stations returned from FMI API")
	}
	t.Logf("Successfully fetched %d mareographs from FMI API", resp.Count)

	hanko := resp.FindByFMISID("134253")
	if hanko == nil {
		t.Fatal("Hanko Pikku Kolalahti (FMISID 134253) not found")
	}

	expectedLat, expectedLon := 59.8225, 22.9765
	tolerance := 0.01
	if math.Abs(hanko.Location.Lat-expectedLat) > tolerance || math.Abs(hanko.Location.Lon-expectedLon) > tolerance {
		t.Errorf("Hanko location %+v differs from expected %.4f,%.4f", hanko.Location, expectedLat, expectedLon)
	}
}

// TestSeaLevelForecastIntegration fetches a live forecast for Hanko
func TestSeaLevelForecastIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Second)
	defer cancel()

	query := sealevel.NewQuery(fmi.DefaultBaseURL, httpClient, nil)
	resp, err := query.Execute(ctx, sealevel.Request{
		Location:  fmi.Coordinates{Lat: 59.8225, Lon: 22.9765},
		StartTime: time.Now().UTC().Truncate(time.Second),
		Timestep:  60,
		UseGzip:   true,
	})
	if err != nil {
		t.Fatalf("Failed to fetch forecast: %v", err)
	}

	if len(resp.Points) == 0 {
		t.Fatal("Forecast contained no SeaLevel points")
	}
	t.Logf("Stats: %+v", resp.Stats)
	t.Logf("First point: %+v", resp.Points[0])

	if resp.Stats.Malformed > 0 {
		t.Errorf("Live feed contained %d malformed records", resp.Stats.Malformed)
	}
	for i, p := range resp.Points {
		if _, err := time.Parse(time.RFC3339, p.Time); err != nil {
			t.Errorf("Point %d has unexpected time %q", i, p.Time)
		}
	}
}
