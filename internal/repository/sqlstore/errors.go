package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/joshdurbin/shortenurl/internal/domain"
)

// classify maps driver errors onto the domain error taxonomy
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505": // unique_violation
			return fmt.Errorf("%w: %w", domain.ErrAliasConflict, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "28": // connection_exception, invalid_authorization_specification
			return fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", domain.ErrAliasConflict, err)
		case sqliteErr.Code == sqlite3.ErrCantOpen, sqliteErr.Code == sqlite3.ErrNotADB:
			return fmt.Errorf("%w: %w", domain.ErrConnection, err)
		}
		return err
	}

	// context.DeadlineExceeded also satisfies net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	return err
}
