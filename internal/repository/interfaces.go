package repository

import (
	"context"

	"github.com/joshdurbin/shortenurl/internal/domain"
)

// ListOptions controls paging of List. The zero value returns every record.
type ListOptions struct {
	Limit  int
	Offset int
}

// AliasRepository defines the interface for alias data operations
type AliasRepository interface {
	// Create inserts a new record for alias with a freshly generated ID
	Create(ctx context.Context, alias, url string) (*domain.AliasRecord, error)

	// Get retrieves a record by its alias
	Get(ctx context.Context, alias string) (*domain.AliasRecord, error)

	// List retrieves records ordered by alias
	List(ctx context.Context, opts ListOptions) ([]*domain.AliasRecord, error)

	// Delete removes a record by its alias and returns it
	Delete(ctx context.Context, alias string) (*domain.AliasRecord, error)

	// DeleteAll removes every record and returns the removed records
	DeleteAll(ctx context.Context) ([]*domain.AliasRecord, error)

	// Migrate applies the schema to the store
	Migrate(ctx context.Context) error

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// Close closes the repository connection
	Close() error
}
