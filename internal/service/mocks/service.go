package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository"
)

// AliasService is a mock implementation of service.AliasService
type AliasService struct {
	mock.Mock
}

// CreateAlias mints an alias for url and persists it
func (m *AliasService) CreateAlias(ctx context.Context, url string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// GetAlias retrieves the record for an alias
func (m *AliasService) GetAlias(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// ListAliases retrieves stored records
func (m *AliasService) ListAliases(ctx context.Context, opts repository.ListOptions) ([]*domain.AliasRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AliasRecord), args.Error(1)
}

// DeleteAlias removes the record for an alias
func (m *AliasService) DeleteAlias(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// FlushAliases removes every record
func (m *AliasService) FlushAliases(ctx context.Context) ([]*domain.AliasRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AliasRecord), args.Error(1)
}

// Migrate applies the store schema
func (m *AliasService) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the service and its dependencies
func (m *AliasService) Close() error {
	args := m.Called()
	return args.Error(0)
}
