package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mareo-monitor/internal/stations"
)

// DefaultFMISID is prefilled in the setup form
const DefaultFMISID = 123456

// StepUser is the id of the only setup step
const StepUser = "user"

// Flow result types
const (
	ResultForm        = "form"
	ResultCreateEntry = "create_entry"
	ResultAbort       = "abort"
)

// Error codes reported back on the form
const (
	CodeInvalidFMISID   = "invalid_fmisid"
	CodeInvalidTimestep = "invalid_timestep"
	CodeStationNotFound = "station_not_found"
	CodeCannotConnect   = "cannot_connect"
	CodeUnknown         = "unknown"
)

// ReasonAlreadyConfigured aborts the flow when the station already has an entry
const ReasonAlreadyConfigured = "already_configured"

// UserInput is what the user submits on the setup form. FMISID is kept as
// text so that malformed input can be reported instead of rejected.
type UserInput struct {
	FMISID   string `json:"fmisid"`
	Name     string `json:"name,omitempty"`
	Timestep int    `json:"timestep,omitempty"`
}

// UnmarshalJSON accepts the station id either as a JSON number or a string
func (u *UserInput) UnmarshalJSON(b []byte) error {
	var raw struct {
		FMISID   json.RawMessage `json:"fmisid"`
		Name     string          `json:"name"`
		Timestep int             `json:"timestep"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.FMISID = strings.Trim(string(raw.FMISID), `"`)
	u.Name = raw.Name
	u.Timestep = raw.Timestep
	return nil
}

// FormField describes one input of the setup form
type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
}

// FlowResult is the outcome of a setup step
type FlowResult struct {
	Type       string            `json:"type"`
	StepID     string            `json:"step_id,omitempty"`
	DataSchema []FormField       `json:"data_schema,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Title      string            `json:"title,omitempty"`
	Entry      *Entry            `json:"entry,omitempty"`
}

// Resolver finds station metadata by FMISID
type Resolver interface {
	Resolve(ctx context.Context, fmisid string) (stations.Station, error)
}

// Flow validates a station id and creates the matching entry
type Flow struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger
}

func NewFlow(store Store, resolver Resolver, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{store: store, resolver: resolver, logger: logger}
}

// StepUser handles the interactive setup step. A nil input shows the empty form.
func (f *Flow) StepUser(ctx context.Context, input *UserInput) FlowResult {
	if input == nil {
		return userForm(nil)
	}

	entry, err := f.StepImport(ctx, *input)
	if err == nil {
		return FlowResult{Type: ResultCreateEntry, Title: entry.Title, Entry: &entry}
	}

	switch {
	case errors.Is(err, ErrAlreadyConfigured):
		return FlowResult{Type: ResultAbort, Reason: ReasonAlreadyConfigured}
	case errors.Is(err, ErrInvalidFMISID):
		return userForm(map[string]string{"fmisid": CodeInvalidFMISID})
	case errors.Is(err, ErrInvalidTimestep):
		return userForm(map[string]string{"timestep": CodeInvalidTimestep})
	case errors.Is(err, stations.ErrStationNotFound):
		return userForm(map[string]string{"fmi": CodeStationNotFound})
	case errors.Is(err, ErrCannotConnect):
		return userForm(map[string]string{"fmi": CodeCannotConnect})
	default:
		f.logger.Error("setup step failed", "fmisid", input.FMISID, "err", err)
		return userForm(map[string]string{"base": CodeUnknown})
	}
}

// StepImport runs the same validation as StepUser without a form and
// persists the entry
func (f *Flow) StepImport(ctx context.Context, input UserInput) (Entry, error) {
	fmisid, err := strconv.Atoi(strings.TrimSpace(input.FMISID))
	if err != nil || fmisid <= 0 {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidFMISID, input.FMISID)
	}
	if input.Timestep < 0 {
		return Entry{}, fmt.Errorf("%w: %d", ErrInvalidTimestep, input.Timestep)
	}

	uniqueID := UniqueIDFor(fmisid)
	if _, err := f.store.GetByUniqueID(ctx, uniqueID); err == nil {
		return Entry{}, ErrAlreadyConfigured
	} else if !errors.Is(err, ErrEntryNotFound) {
		return Entry{}, err
	}

	station, err := f.resolver.Resolve(ctx, uniqueID)
	if errors.Is(err, stations.ErrStationNotFound) {
		return Entry{}, fmt.Errorf("fmisid %d: %w", fmisid, err)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrCannotConnect, err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = station.Name
	}

	created, err := f.store.Create(ctx, Entry{
		UniqueID: uniqueID,
		Title:    station.Name,
		Data: Data{
			FMISID:    fmisid,
			Name:      name,
			Latitude:  station.Latitude,
			Longitude: station.Longitude,
		},
		Options: Options{Timestep: input.Timestep},
	})
	if err != nil {
		return Entry{}, err
	}

	f.logger.Info("entry created", "entry_id", created.EntryID, "fmisid", fmisid, "title", created.Title)
	return created, nil
}

func userForm(errs map[string]string) FlowResult {
	if errs == nil {
		errs = map[string]string{}
	}
	return FlowResult{
		Type:   ResultForm,
		StepID: StepUser,
		DataSchema: []FormField{
			{Name: "fmisid", Type: "integer", Required: true, Default: DefaultFMISID},
		},
		Errors: errs,
	}
}
