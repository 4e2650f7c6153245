package sealevel

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"mareo-monitor/pkg/fmi"
)

// Parser handles parsing of FMI sea level forecast responses
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new forecast parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads a forecast response, optionally gzip compressed
func (p *Parser) Parse(r io.Reader, isGzipped bool) (*Response, error) {
	if isGzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrMalformedFeed, err)
		}
		defer gz.Close()
		r = gz
	}
	return p.parseXML(r)
}

// parseXML walks the feature collection member by member so that a broken
// record never costs the rest of the feed.
func (p *Parser) parseXML(r io.Reader) (*Response, error) {
	start := time.Now()
	decoder := xml.NewDecoder(r)
	resp := &Response{Points: make([]Point, 0)}

	rootSeen := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !rootSeen {
			rootSeen = true
			switch se.Name.Local {
			case "FeatureCollection":
				continue
			case "ExceptionReport":
				var report fmi.ExceptionReport
				if err := decoder.DecodeElement(&report, &se); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
				}
				return nil, report.Err(200)
			default:
				return nil, fmt.Errorf("%w: unexpected root element %q", ErrMalformedFeed, se.Name.Local)
			}
		}

		if se.Name.Local != "member" {
			if err := decoder.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
			}
			continue
		}

		var m member
		if err := decoder.DecodeElement(&m, &se); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}
		p.processMember(resp, m)
	}

	if !rootSeen {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedFeed)
	}

	resp.Stats.Duration = time.Since(start)
	return resp, nil
}

func (p *Parser) processMember(resp *Response, m member) {
	index := resp.Stats.Records
	resp.Stats.Records++

	el := m.Element
	if el == nil || el.ParameterName == nil {
		resp.Stats.Malformed++
		p.logger.Debug("sea level forecast record not in expected format", "index", index)
		return
	}

	name := strings.TrimSpace(*el.ParameterName)
	switch name {
	case ParamSeaLevel:
		if el.Time == nil || el.ParameterValue == nil {
			resp.Stats.Malformed++
			p.logger.Debug("sea level forecast record not in expected format",
				"index", index,
				"pos", strings.TrimSpace(el.Location.Point.Pos),
			)
			return
		}
		resp.Points = append(resp.Points, Point{
			Time:   strings.TrimSpace(*el.Time),
			Height: strings.TrimSpace(*el.ParameterValue),
		})
		resp.Stats.Kept++
	case ParamSeaLevelN2000:
		resp.Stats.SkippedN2000++
	default:
		resp.Stats.Unsupported++
		p.logger.Debug("sea level forecast unsupported record", "index", index, "parameter", name)
	}
}
