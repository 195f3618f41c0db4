package service

import (
	"context"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository"
)

// AliasService defines the alias lifecycle operations
type AliasService interface {
	// CreateAlias mints an alias for url and persists it
	CreateAlias(ctx context.Context, url string) (*domain.AliasRecord, error)

	// GetAlias retrieves the record for an alias
	GetAlias(ctx context.Context, alias string) (*domain.AliasRecord, error)

	// ListAliases retrieves stored records
	ListAliases(ctx context.Context, opts repository.ListOptions) ([]*domain.AliasRecord, error)

	// DeleteAlias removes the record for an alias
	DeleteAlias(ctx context.Context, alias string) (*domain.AliasRecord, error)

	// FlushAliases removes every record
	FlushAliases(ctx context.Context) ([]*domain.AliasRecord, error)

	// Migrate applies the store schema
	Migrate(ctx context.Context) error

	// Close closes the service and its dependencies
	Close() error
}
