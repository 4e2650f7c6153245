package fmi

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

const exceptionBody = `<?xml version="1.0" encoding="UTF-8"?>
<ExceptionReport xmlns="http://www.opengis.net/ows/1.1">
  <Exception exceptionCode="OperationParsingFailed">
    <ExceptionText>Invalid parameter value for 'latlon'.</ExceptionText>
    <ExceptionText>  </ExceptionText>
    <ExceptionText>URI: /wfs?latlon=999,999</ExceptionText>
  </Exception>
</ExceptionReport>`

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "exception report",
			status:   http.StatusBadRequest,
			body:     exceptionBody,
			wantCode: "OperationParsingFailed",
			wantMsg:  "FMI API Error [OperationParsingFailed]: Invalid parameter value for 'latlon'. | URI: /wfs?latlon=999,999",
		},
		{
			name:    "plain body",
			status:  http.StatusServiceUnavailable,
			body:    "  Service Unavailable\n",
			wantMsg: "FMI API returned status 503: Service Unavailable",
		},
		{
			name:    "empty body",
			status:  http.StatusBadGateway,
			wantMsg: "FMI API returned status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(response(tt.status, tt.body), "https://example.test/wfs")

			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.RequestURL != "https://example.test/wfs" {
				t.Errorf("RequestURL = %q", apiErr.RequestURL)
			}
			if apiErr.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", apiErr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExceptionReportWithoutExceptions(t *testing.T) {
	report := &ExceptionReport{}
	apiErr := report.Err(http.StatusOK)
	if apiErr.Code != "Unknown" {
		t.Errorf("Code = %q, want Unknown", apiErr.Code)
	}
}

func TestStoredQueryParams(t *testing.T) {
	params := StoredQueryParams("fmi::forecast::sealevel::point::simple")

	want := map[string]string{
		"service":        "WFS",
		"version":        "2.0.0",
		"request":        "getFeature",
		"storedquery_id": "fmi::forecast::sealevel::point::simple",
	}
	for k, v := range want {
		if got := params.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestFormatTime(t *testing.T) {
	helsinki := time.FixedZone("EEST", 3*60*60)
	got := FormatTime(time.Date(2026, 10, 19, 11, 30, 15, 0, helsinki))
	if got != "2026-10-19T08:30:15Z" {
		t.Errorf("FormatTime = %q", got)
	}
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		c      Coordinates
		valid  bool
		latlon string
	}{
		{"hanko", Coordinates{Lat: 59.8225, Lon: 22.9765}, true, "59.8225,22.9765"},
		{"integers", Coordinates{Lat: 60, Lon: 25}, true, "60,25"},
		{"out of range", Coordinates{Lat: 91, Lon: 25}, false, "91,25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.c.Valid() != tt.valid {
				t.Errorf("Valid() = %v", !tt.valid)
			}
			if tt.c.LatLon() != tt.latlon {
				t.Errorf("LatLon() = %q, want %q", tt.c.LatLon(), tt.latlon)
			}
		})
	}
}

func TestBBox(t *testing.T) {
	if got := FinlandBBox.String(); got != "19.08,59.45,31.59,70.09" {
		t.Errorf("String() = %q", got)
	}
	if !FinlandBBox.Contains(Coordinates{Lat: 60.1536, Lon: 24.9562}) {
		t.Error("Helsinki should be inside Finland")
	}
	if FinlandBBox.Contains(Coordinates{Lat: 59.33, Lon: 18.07}) {
		t.Error("Stockholm should be outside Finland")
	}
}
