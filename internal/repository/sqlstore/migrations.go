package sqlstore

import (
	"cmp"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	selectAppliedVersions = "SELECT version FROM schema_migrations"
	insertAppliedVersion  = "INSERT INTO schema_migrations (version) VALUES (?)"
)

// Migration is one versioned schema step, loaded from NNN_name.sql
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations returns the dialect's embedded schema steps ordered by version
func (d Dialect) migrations() ([]Migration, error) {
	files, err := fs.Glob(migrationsFS, path.Join("migrations", d.Name, "*.sql"))
	if err != nil {
		return nil, err
	}

	steps := make([]Migration, 0, len(files))
	for _, file := range files {
		prefix, name, ok := strings.Cut(strings.TrimSuffix(path.Base(file), ".sql"), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s is not named NNN_description.sql", file)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s has no numeric version: %w", file, err)
		}

		body, err := migrationsFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		steps = append(steps, Migration{Version: version, Name: name, SQL: string(body)})
	}

	slices.SortFunc(steps, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
	return steps, nil
}

// Migrate brings the schema up to date, one transaction per pending step
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.MigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", classify(err))
	}

	steps, err := s.dialect.migrations()
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", s.dialect.Name, err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", classify(err))
	}

	pending := lo.Reject(steps, func(step Migration, _ int) bool {
		return applied[step.Version]
	})
	for _, step := range pending {
		if err := s.apply(ctx, step); err != nil {
			return fmt.Errorf("failed to apply migration %03d_%s: %w", step.Version, step.Name, classify(err))
		}
	}

	return nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, selectAppliedVersions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func (s *Store) apply(ctx context.Context, step Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(insertAppliedVersion), step.Version); err != nil {
		return fmt.Errorf("failed to record version %d: %w", step.Version, err)
	}

	return tx.Commit()
}
