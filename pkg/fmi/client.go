package fmi

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the FMI open data WFS endpoint
const DefaultBaseURL = "https://opendata.fmi.fi/wfs"

// TimeFormat is the timestamp layout FMI stored queries accept
const TimeFormat = "2006-01-02T15:04:05Z"

// FMI OWS Exception structures for parsing error responses
type ExceptionReport struct {
	XMLName    xml.Name    `xml:"ExceptionReport"`
	Exceptions []Exception `xml:"Exception"`
}

type Exception struct {
	XMLName       xml.Name `xml:"Exception"`
	ExceptionCode string   `xml:"exceptionCode,attr"`
	ExceptionText []string `xml:"ExceptionText"`
}

// APIError describes a failed WFS request
type APIError struct {
	StatusCode int
	Code       string
	Texts      []string
	Body       string
	RequestURL string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		msg := fmt.Sprintf("FMI API Error [%s]", e.Code)
		if len(e.Texts) > 0 {
			msg += ": " + strings.Join(e.Texts, " | ")
		}
		return msg
	}

	if e.Body != "" {
		return fmt.Sprintf("FMI API returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("FMI API returned status %d", e.StatusCode)
}

// Err converts a decoded exception report into an APIError
func (r *ExceptionReport) Err(statusCode int) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Code: "Unknown"}
	if len(r.Exceptions) == 0 {
		return apiErr
	}

	exc := r.Exceptions[0]
	if exc.ExceptionCode != "" {
		apiErr.Code = exc.ExceptionCode
	}
	for _, text := range exc.ExceptionText {
		if text = strings.TrimSpace(text); text != "" {
			apiErr.Texts = append(apiErr.Texts, text)
		}
	}
	return apiErr
}

// NewAPIError builds an error from a non-200 response, preferring the FMI
// exception report over the raw body
func NewAPIError(resp *http.Response, requestURL string) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("HTTP %d: failed to read error response: %w", resp.StatusCode, err)
	}

	if report, err := ParseExceptionReport(bytes.NewReader(body)); err == nil {
		apiErr := report.Err(resp.StatusCode)
		apiErr.RequestURL = requestURL
		return apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RequestURL: requestURL,
	}
}

// ParseExceptionReport attempts to parse an FMI XML error response
func ParseExceptionReport(body io.Reader) (*ExceptionReport, error) {
	var report ExceptionReport
	if err := xml.NewDecoder(body).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

// StoredQueryParams returns the common WFS parameters for a stored query
func StoredQueryParams(storedQueryID string) url.Values {
	params := url.Values{}
	params.Set("service", "WFS")
	params.Set("version", "2.0.0")
	params.Set("request", "getFeature")
	params.Set("storedquery_id", storedQueryID)
	return params
}

// FormatTime formats t in the layout FMI expects, always in UTC
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
