package sqlstore

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Dialect captures what differs between the supported database engines
type Dialect struct {
	// Name selects the embedded migrations directory
	Name string
	// DriverName is the database/sql driver to open
	DriverName string
	// MaxOpenConns caps the connection pool
	MaxOpenConns int
	// OrderByAlias orders rows by alias in byte order
	OrderByAlias string
	// MigrationsTable creates the migration bookkeeping table
	MigrationsTable string
	// Pragmas are executed once after connecting
	Pragmas []string

	numbered bool
}

var (
	// Postgres is served by github.com/lib/pq
	Postgres = Dialect{
		Name:         "postgres",
		DriverName:   "postgres",
		MaxOpenConns: 10,
		OrderByAlias: `ORDER BY alias COLLATE "C"`,
		MigrationsTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		numbered: true,
	}

	// SQLite is served by github.com/mattn/go-sqlite3
	SQLite = Dialect{
		Name:         "sqlite",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
		OrderByAlias: "ORDER BY alias",
		MigrationsTable: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		Pragmas: []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
		},
	}
)

// Rebind rewrites ? placeholders into the dialect's bind variable style
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// ParseDatabaseURL picks the dialect for a connection string and returns the
// DSN to hand to its driver
func ParseDatabaseURL(databaseURL string) (Dialect, string, error) {
	raw := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(raw)

	switch {
	case raw == "":
		return Dialect{}, "", fmt.Errorf("database URL cannot be empty")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, raw, nil
	case strings.HasPrefix(lower, "sqlite3://"):
		return SQLite, sqlitePath(raw[len("sqlite3://"):]), nil
	case strings.HasPrefix(lower, "sqlite://"):
		return SQLite, sqlitePath(raw[len("sqlite://"):]), nil
	case strings.HasPrefix(lower, "file:"), raw == ":memory:":
		return SQLite, raw, nil
	}

	path, _, _ := strings.Cut(raw, "?")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return SQLite, raw, nil
	}

	return Dialect{}, "", fmt.Errorf("unsupported database URL %q: expected postgres://, sqlite:// or a .db file path", raw)
}

func sqlitePath(rest string) string {
	if rest == "" {
		return ":memory:"
	}
	return rest
}
