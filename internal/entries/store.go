package entries

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

//go:embed sql/insert-entry.sql
var insertEntrySQL string

//go:embed sql/select-entries.sql
var selectEntriesSQL string

//go:embed sql/delete-entry.sql
var deleteEntrySQL string

//go:embed sql/update-options.sql
var updateOptionsSQL string

const createdAtLayout = "2006-01-02T15:04:05.000Z"

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store backed by the entries table
func NewStore(db *sql.DB) Store {
	return &sqliteStore{db: db, now: time.Now}
}

// Create assigns a new entry id and creation time and inserts the entry
func (s *sqliteStore) Create(ctx context.Context, entry Entry) (Entry, error) {
	entry.EntryID = uuid.NewString()
	entry.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx, insertEntrySQL,
		entry.EntryID,
		entry.UniqueID,
		entry.Title,
		entry.Data.FMISID,
		entry.Data.Name,
		entry.Data.Latitude,
		entry.Data.Longitude,
		entry.Options.Timestep,
		entry.CreatedAt.Format(createdAtLayout),
	)
	if isUniqueViolation(err) {
		return Entry{}, ErrAlreadyConfigured
	}
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

func (s *sqliteStore) Get(ctx context.Context, entryID string) (Entry, error) {
	return s.queryOne(ctx, " WHERE entry_id = ?", entryID)
}

func (s *sqliteStore) GetByUniqueID(ctx context.Context, uniqueID string) (Entry, error) {
	return s.queryOne(ctx, " WHERE unique_id = ?", uniqueID)
}

// List returns all entries, oldest first
func (s *sqliteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntriesSQL+" ORDER BY created_at, entry_id")
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, entryID string) error {
	res, err := s.db.ExecContext(ctx, deleteEntrySQL, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res)
}

func (s *sqliteStore) UpdateOptions(ctx context.Context, entryID string, opts Options) (Entry, error) {
	res, err := s.db.ExecContext(ctx, updateOptionsSQL, opts.Timestep, entryID)
	if err != nil {
		return Entry{}, fmt.Errorf("update options: %w", err)
	}
	if err := requireRow(res); err != nil {
		return Entry{}, err
	}
	return s.Get(ctx, entryID)
}

func (s *sqliteStore) queryOne(ctx context.Context, where string, arg any) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntriesSQL+where, arg)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		createdAt string
	)
	err := row.Scan(
		&e.EntryID,
		&e.UniqueID,
		&e.Title,
		&e.Data.FMISID,
		&e.Data.Name,
		&e.Data.Latitude,
		&e.Data.Longitude,
		&e.Options.Timestep,
		&createdAt,
	)
	if err != nil {
		return Entry{}, err
	}
	if e.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
		return Entry{}, fmt.Errorf("entry %s: bad created_at %q: %w", e.EntryID, createdAt, err)
	}
	return e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
