package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository"
)

const (
	insertAlias    = "INSERT INTO aliases (id, alias, url) VALUES (?, ?, ?) RETURNING id, alias, url"
	selectAlias    = "SELECT id, alias, url FROM aliases WHERE alias = ?"
	selectAliases  = "SELECT id, alias, url FROM aliases "
	deleteAlias    = "DELETE FROM aliases WHERE alias = ? RETURNING id, alias, url"
	deleteAliases  = "DELETE FROM aliases RETURNING id, alias, url"
	limitAndOffset = " LIMIT ? OFFSET ?"
)

// Store implements repository.AliasRepository on top of database/sql
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New connects to the database named by databaseURL. The schema is not
// applied; call Migrate for that.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(dialect.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	for _, pragma := range dialect.Pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &Store{
		db:      db,
		dialect: dialect,
	}, nil
}

// Dialect returns the dialect the store was opened with
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Create inserts a new record for alias with a freshly generated ID
func (s *Store) Create(ctx context.Context, alias, url string) (*domain.AliasRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(insertAlias), uuid.New(), alias, url)

	record, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create alias %q: %w", alias, classify(err))
	}

	return record, nil
}

// Get retrieves a record by its alias
func (s *Store) Get(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, s.dialect.Rebind(selectAlias), alias))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, alias)
		}
		return nil, fmt.Errorf("failed to get alias %q: %w", alias, classify(err))
	}

	return record, nil
}

// List retrieves records ordered by alias. Offset is only honoured together
// with a positive Limit.
func (s *Store) List(ctx context.Context, opts repository.ListOptions) ([]*domain.AliasRecord, error) {
	query := selectAliases + s.dialect.OrderByAlias
	var args []any
	if opts.Limit > 0 {
		query += limitAndOffset
		args = append(args, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", classify(err))
	}

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", classify(err))
	}

	return records, nil
}

// Delete removes a record by its alias and returns it
func (s *Store) Delete(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, s.dialect.Rebind(deleteAlias), alias))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, alias)
		}
		return nil, fmt.Errorf("failed to delete alias %q: %w", alias, classify(err))
	}

	return record, nil
}

// DeleteAll removes every record and returns the removed records. An empty
// store is reported as domain.ErrNotFound.
func (s *Store) DeleteAll(ctx context.Context) ([]*domain.AliasRecord, error) {
	rows, err := s.db.QueryContext(ctx, deleteAliases)
	if err != nil {
		return nil, fmt.Errorf("failed to delete aliases: %w", classify(err))
	}

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to delete aliases: %w", classify(err))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no aliases to delete", domain.ErrNotFound)
	}

	return records, nil
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.AliasRecord, error) {
	var record domain.AliasRecord
	if err := row.Scan(&record.ID, &record.Alias, &record.URL); err != nil {
		return nil, err
	}
	return &record, nil
}

func scanRecords(rows *sql.Rows) ([]*domain.AliasRecord, error) {
	defer rows.Close()

	records := make([]*domain.AliasRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Ensure Store implements the interface
var _ repository.AliasRepository = (*Store)(nil)
