package stations

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"

	"mareo-monitor/pkg/fmi"
)

// MockHTTPClient for testing
type MockHTTPClient struct {
	Response *http.Response
	Error    error
	Requests []*http.Request
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.Response, m.Error
}

func TestQueryBuildURL(t *testing.T) {
	query := NewQuery(fmi.DefaultBaseURL, nil)

	tests := []struct {
		name        string
		req         Request
		expectParts map[string]string
	}{
		{
			name: "Basic_Request",
			req:  Request{},
			expectParts: map[string]string{
				"service":        "WFS",
				"version":        "2.0.0",
				"request":        "getFeature",
				"storedquery_id": "fmi::ef::stations",
			},
		},
		{
			name: "With_BBox",
			req: Request{
				BBox: &fmi.BBox{MinLon: 24.0, MinLat: 60.0, MaxLon: 25.0, MaxLat: 61.0},
			},
			expectParts: map[string]string{
				"bbox": "24.00,60.00,25.00,61.00",
			},
		},
		{
			name: "With_Network",
			req:  Request{NetworkID: fmi.MareographNetworkID},
			expectParts: map[string]string{
				"networkid": "128",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsedURL, err := url.Parse(query.buildURL(tt.req))
			if err != nil {
				t.Fatalf("Failed to parse URL: %v", err)
			}

			params := parsedURL.Query()
			for key, expectedValue := range tt.expectParts {
				if actual := params.Get(key); actual != expectedValue {
					t.Errorf("Parameter %s: expected '%s', got '%s'", key, expectedValue, actual)
				}
			}
		})
	}
}

func TestQueryExecuteSuccess(t *testing.T) {
	data, err := os.ReadFile("testdata/mareographs.xml")
	if err != nil {
		t.Fatalf("Failed to read test XML: %v", err)
	}

	mockClient := &MockHTTPClient{
		Response: &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader(data)),
		},
	}

	query := NewQuery(fmi.DefaultBaseURL, mockClient)
	response, err := query.Execute(context.Background(), Request{NetworkID: fmi.MareographNetworkID})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if response.Count != 2 {
		t.Errorf("Expected count=2, got %d", response.Count)
	}

	if len(mockClient.Requests) != 1 {
		t.Fatalf("Expected 1 HTTP request, got %d", len(mockClient.Requests))
	}
	if got := mockClient.Requests[0].URL.Query().Get("networkid"); got != "128" {
		t.Errorf("Expected networkid=128, got %q", got)
	}
}

func TestQueryExecuteGzip(t *testing.T) {
	data, err := os.ReadFile("testdata/mareographs.xml")
	if err != nil {
		t.Fatalf("Failed to read test XML: %v", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write(data)
	gz.Close()

	header := make(http.Header)
	header.Set("Content-Encoding", "gzip")
	mockClient := &MockHTTPClient{
		Response: &http.Response{
			StatusCode: http.StatusOK,
			Header:     header,
			Body:       io.NopCloser(&buf),
		},
	}

	query := NewQuery(fmi.DefaultBaseURL, mockClient)
	response, err := query.Execute(context.Background(), Request{UseGzip: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("Expected count=2, got %d", response.Count)
	}
	if mockClient.Requests[0].Header.Get("Accept-Encoding") != "gzip" {
		t.Error("Expected gzip Accept-Encoding header")
	}
}

func TestQueryExecuteHTTPError(t *testing.T) {
	mockClient := &MockHTTPClient{Error: http.ErrHandlerTimeout}

	query := NewQuery(fmi.DefaultBaseURL, mockClient)
	_, err := query.Execute(context.Background(), Request{})
	if err == nil {
		t.Fatal("Expected error for HTTP failure")
	}
	if !errors.Is(err, http.ErrHandlerTimeout) {
		t.Errorf("Expected wrapped transport error, got: %v", err)
	}
}

func TestQueryExecuteHTTPStatusError(t *testing.T) {
	mockClient := &MockHTTPClient{
		Response: &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("Not Found")),
		},
	}

	query := NewQuery(fmi.DefaultBaseURL, mockClient)
	_, err := query.Execute(context.Background(), Request{})

	var apiErr *fmi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *fmi.APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", apiErr.StatusCode)
	}
}

func BenchmarkQueryBuildURL(b *testing.B) {
	query := NewQuery(fmi.DefaultBaseURL, nil)
	req := Request{BBox: &fmi.FinlandBBox, NetworkID: fmi.MareographNetworkID}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = query.buildURL(req)
	}
}
