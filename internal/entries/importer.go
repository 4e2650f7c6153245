package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ImportFile is the yaml document listing stations to configure
type ImportFile struct {
	Entries []ImportItem `yaml:"entries"`
}

type ImportItem struct {
	FMISID   int    `yaml:"fmisid"`
	Name     string `yaml:"name"`
	Timestep int    `yaml:"timestep"`
}

// ImportResult reports what happened to each item of an import
type ImportResult struct {
	Created []Entry
	// Skipped holds unique ids that already had an entry
	Skipped []string
	// Failed is in file order; items without a usable fmisid are kept apart
	// by their position
	Failed []ImportFailure
}

// ImportFailure is an item that could not be imported
type ImportFailure struct {
	Index  int
	FMISID int
	Err    error
}

func (f ImportFailure) Error() string {
	return fmt.Sprintf("entry %d (fmisid %d): %v", f.Index, f.FMISID, f.Err)
}

func (f ImportFailure) Unwrap() error { return f.Err }

func NewReadError(path string, err error) error {
	return fmt.Errorf("failed to read entries file %q: %w", path, err)
}

func NewParseError(path string, err error) error {
	return fmt.Errorf("failed to parse entries file %q: %w", path, err)
}

// LoadImportFile reads and decodes an entries file
func LoadImportFile(path string) (*ImportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewReadError(path, err)
	}
	var f ImportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, NewParseError(path, err)
	}
	return &f, nil
}

// Importer creates entries from an ImportFile through the setup flow
type Importer struct {
	flow   *Flow
	logger *slog.Logger
}

func NewImporter(flow *Flow, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{flow: flow, logger: logger}
}

// ImportPath loads path and imports every item in it
func (i *Importer) ImportPath(ctx context.Context, path string) (ImportResult, error) {
	f, err := LoadImportFile(path)
	if err != nil {
		return ImportResult{}, err
	}
	return i.Import(ctx, f.Entries), nil
}

// Import runs the import step for each item. Items that are already
// configured are skipped, failures are collected per item.
func (i *Importer) Import(ctx context.Context, items []ImportItem) ImportResult {
	var res ImportResult

	for idx, item := range items {
		entry, err := i.flow.StepImport(ctx, UserInput{
			FMISID:   strconv.Itoa(item.FMISID),
			Name:     item.Name,
			Timestep: item.Timestep,
		})
		switch {
		case err == nil:
			res.Created = append(res.Created, entry)
		case errors.Is(err, ErrAlreadyConfigured):
			res.Skipped = append(res.Skipped, UniqueIDFor(item.FMISID))
		default:
			i.logger.Warn("entry import failed", "index", idx, "fmisid", item.FMISID, "err", err)
			res.Failed = append(res.Failed, ImportFailure{Index: idx, FMISID: item.FMISID, Err: err})
		}
	}

	i.logger.Info("entries imported",
		"created", len(res.Created),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed),
	)
	return res
}
