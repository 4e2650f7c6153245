package entries

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var (
	// ErrEntryNotFound is returned when no entry matches the requested id
	ErrEntryNotFound = errors.New("entry not found")

	// ErrAlreadyConfigured is returned when an entry for the station already exists
	ErrAlreadyConfigured = errors.New("already configured")

	// ErrInvalidFMISID is returned for non-numeric or non-positive station ids
	ErrInvalidFMISID = errors.New("invalid fmisid")

	// ErrInvalidTimestep is returned for negative forecast steps
	ErrInvalidTimestep = errors.New("invalid timestep")

	// ErrCannotConnect wraps station lookup failures other than an unknown station
	ErrCannotConnect = errors.New("cannot connect")
)

// Data is the immutable part of an entry, fixed when the entry is created
type Data struct {
	FMISID    int     `json:"fmisid"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Options can be changed after creation and trigger a reload
type Options struct {
	// Timestep is the forecast step in minutes, 0 leaves the FMI default
	Timestep int `json:"timestep"`
}

// Entry is one configured mareograph station
type Entry struct {
	EntryID   string    `json:"entry_id"`
	UniqueID  string    `json:"unique_id"`
	Title     string    `json:"title"`
	Data      Data      `json:"data"`
	Options   Options   `json:"options"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists configuration entries
type Store interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, entryID string) (Entry, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, entryID string) error
	UpdateOptions(ctx context.Context, entryID string, opts Options) (Entry, error)
}

// Lifecycle is the host side of an entry: the HTTP API notifies it about
// created, removed and changed entries
type Lifecycle interface {
	SetupEntry(ctx context.Context, entry Entry) error
	UnloadEntry(entryID string) error
	ReloadEntry(ctx context.Context, entryID string) error
	RefreshEntry(ctx context.Context, entryID string) error
}

// UniqueIDFor returns the unique id of the entry for a station
func UniqueIDFor(fmisid int) string {
	return strconv.Itoa(fmisid)
}
