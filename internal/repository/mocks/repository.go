package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository"
)

// AliasRepository is a mock implementation of repository.AliasRepository
type AliasRepository struct {
	mock.Mock
}

// Create inserts a new record for alias
func (m *AliasRepository) Create(ctx context.Context, alias, url string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, alias, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// Get retrieves a record by its alias
func (m *AliasRepository) Get(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// List retrieves records ordered by alias
func (m *AliasRepository) List(ctx context.Context, opts repository.ListOptions) ([]*domain.AliasRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AliasRecord), args.Error(1)
}

// Delete removes a record by its alias
func (m *AliasRepository) Delete(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AliasRecord), args.Error(1)
}

// DeleteAll removes every record
func (m *AliasRepository) DeleteAll(ctx context.Context) ([]*domain.AliasRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AliasRecord), args.Error(1)
}

// Migrate applies the schema
func (m *AliasRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Ping verifies the store is reachable
func (m *AliasRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the repository connection
func (m *AliasRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repository.AliasRepository = (*AliasRepository)(nil)
