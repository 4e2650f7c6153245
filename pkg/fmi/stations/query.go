package stations

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"mareo-monitor/pkg/fmi"
)

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query handles FMI stations API queries
type Query struct {
	baseURL    string
	httpClient HTTPClient
}

// NewQuery creates a new stations query handler
func NewQuery(baseURL string, client HTTPClient) *Query {
	return &Query{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Execute performs the query and returns parsed stations
func (q *Query) Execute(ctx context.Context, req Request) (*Response, error) {
	requestURL := q.buildURL(req)

	httpReq, err := q.createHTTPRequest(ctx, requestURL, req.UseGzip)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmi.NewAPIError(resp, requestURL)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	return NewParser().Parse(body)
}

func (q *Query) buildURL(req Request) string {
	params := fmi.StoredQueryParams(StoredQueryID)

	if req.BBox != nil {
		params.Set("bbox", req.BBox.String())
	}
	if req.NetworkID != "" {
		params.Set("networkid", req.NetworkID)
	}

	return fmt.Sprintf("%s?%s", q.baseURL, params.Encode())
}

func (q *Query) createHTTPRequest(ctx context.Context, url string, useGzip bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	if useGzip {
		req.Header.Set("Accept-Encoding", "gzip")
	}

	return req, nil
}
