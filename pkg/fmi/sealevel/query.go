package sealevel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mareo-monitor/pkg/fmi"
)

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query handles FMI sea level forecast queries
type Query struct {
	baseURL    string
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewQuery creates a new forecast query handler
func NewQuery(baseURL string, client HTTPClient, logger *slog.Logger) *Query {
	if logger == nil {
		logger = slog.Default()
	}
	return &Query{
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}
}

// Execute performs the query and returns the parsed forecast
func (q *Query) Execute(ctx context.Context, req Request) (*Response, error) {
	requestURL, err := q.buildURL(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	httpReq, err := q.createHTTPRequest(ctx, requestURL, req.UseGzip)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	q.logger.Debug("fetching sea level forecast", "url", requestURL)

	resp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmi.NewAPIError(resp, requestURL)
	}

	parser := NewParser(q.logger.With("latlon", req.Location.LatLon()))
	isGzipped := resp.Header.Get("Content-Encoding") == "gzip"
	return parser.Parse(resp.Body, isGzipped)
}

func (q *Query) buildURL(req Request) (string, error) {
	if !req.Location.Valid() {
		return "", fmt.Errorf("invalid location %s", req.Location.LatLon())
	}
	if req.StartTime.IsZero() {
		return "", fmt.Errorf("start time is required")
	}
	if req.Timestep < 0 {
		return "", fmt.Errorf("invalid timestep %d", req.Timestep)
	}

	params := fmi.StoredQueryParams(StoredQueryID)
	params.Set("latlon", req.Location.LatLon())
	params.Set("starttime", fmi.FormatTime(req.StartTime))
	if req.Timestep > 0 {
		params.Set("timestep", strconv.Itoa(req.Timestep))
	}

	return fmt.Sprintf("%s?%s", q.baseURL, params.Encode()), nil
}

func (q *Query) createHTTPRequest(ctx context.Context, url string, useGzip bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Setting the header disables the transport's transparent decompression,
	// the parser handles the gzip body itself.
	if useGzip {
		req.Header.Set("Accept-Encoding", "gzip")
	}

	return req, nil
}
