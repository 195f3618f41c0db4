package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/metrics"
	"github.com/joshdurbin/shortenurl/internal/repository"
	repoMocks "github.com/joshdurbin/shortenurl/internal/repository/mocks"
	"github.com/joshdurbin/shortenurl/internal/shortener"
)

// sequenceGenerator hands out a fixed sequence of aliases
type sequenceGenerator struct {
	aliases []string
	next    int
}

func (g *sequenceGenerator) Generate(ctx context.Context) (string, error) {
	if g.next >= len(g.aliases) {
		return "", fmt.Errorf("sequence exhausted")
	}
	alias := g.aliases[g.next]
	g.next++
	return alias, nil
}

func (g *sequenceGenerator) Type() string {
	return "sequence"
}

func newTestService(repo repository.AliasRepository, generator shortener.Generator) (AliasService, *metrics.Recorder) {
	recorder := metrics.NewRecorder()
	opts := DefaultOptions()
	opts.RetryDelay = 0
	return NewAliasService(repo, generator, recorder, slog.New(slog.DiscardHandler), opts), recorder
}

func record(alias, url string) *domain.AliasRecord {
	return &domain.AliasRecord{ID: uuid.New(), Alias: alias, URL: url}
}

func TestAliasService_CreateAlias(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		url         string
		aliases     []string
		setupMocks  func(*repoMocks.AliasRepository)
		wantAlias   string
		wantErr     error
		errContains string
	}{
		{
			name:    "successful creation",
			url:     "http://example.com",
			aliases: []string{"1NnLxzC"},
			setupMocks: func(repo *repoMocks.AliasRepository) {
				repo.On("Create", ctx, "1NnLxzC", "http://example.com").
					Return(record("1NnLxzC", "http://example.com"), nil)
			},
			wantAlias: "1NnLxzC",
		},
		{
			name:    "conflict then success",
			url:     "http://example.com",
			aliases: []string{"1NnLxzC", "1NnLxzD"},
			setupMocks: func(repo *repoMocks.AliasRepository) {
				repo.On("Create", ctx, "1NnLxzC", "http://example.com").
					Return(nil, fmt.Errorf("failed to create alias: %w", domain.ErrAliasConflict)).Once()
				repo.On("Create", ctx, "1NnLxzD", "http://example.com").
					Return(record("1NnLxzD", "http://example.com"), nil).Once()
			},
			wantAlias: "1NnLxzD",
		},
		{
			name:    "conflicts exhaust attempts",
			url:     "http://example.com",
			aliases: []string{"a", "b", "c", "d", "e"},
			setupMocks: func(repo *repoMocks.AliasRepository) {
				repo.On("Create", ctx, mock.AnythingOfType("string"), "http://example.com").
					Return(nil, domain.ErrAliasConflict).Times(5)
			},
			wantErr:     domain.ErrAliasConflict,
			errContains: "after 5 attempts",
		},
		{
			name:    "connection error is not retried",
			url:     "http://example.com",
			aliases: []string{"a", "b"},
			setupMocks: func(repo *repoMocks.AliasRepository) {
				repo.On("Create", ctx, "a", "http://example.com").
					Return(nil, domain.ErrConnection).Once()
			},
			wantErr: domain.ErrConnection,
		},
		{
			name:       "empty url",
			url:        "  ",
			setupMocks: func(repo *repoMocks.AliasRepository) {},
			wantErr:    domain.ErrInvalidURL,
		},
		{
			name:        "generator failure",
			url:         "http://example.com",
			aliases:     nil,
			setupMocks:  func(repo *repoMocks.AliasRepository) {},
			errContains: "failed to generate alias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repoMocks.AliasRepository{}
			tt.setupMocks(repo)

			svc, _ := newTestService(repo, &sequenceGenerator{aliases: tt.aliases})

			result, err := svc.CreateAlias(ctx, tt.url)

			if tt.wantErr != nil || tt.errContains != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAlias, result.Alias)
				assert.Equal(t, tt.url, result.URL)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestAliasService_CreateAlias_TimeGeneratorCollision(t *testing.T) {
	// Two creations in the same millisecond mint the same alias; the retry
	// moves the second one to the next millisecond.
	ctx := context.Background()
	base := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	readings := []time.Time{base, base, base.Add(time.Millisecond)}
	clock := func() time.Time {
		now := readings[0]
		readings = readings[1:]
		return now
	}

	first, _ := shortener.AliasAt(base)
	second, _ := shortener.AliasAt(base.Add(time.Millisecond))

	repo := &repoMocks.AliasRepository{}
	repo.On("Create", ctx, first, "https://a.example.com").Return(record(first, "https://a.example.com"), nil).Once()
	repo.On("Create", ctx, first, "https://b.example.com").Return(nil, domain.ErrAliasConflict).Once()
	repo.On("Create", ctx, second, "https://b.example.com").Return(record(second, "https://b.example.com"), nil).Once()

	svc, recorder := newTestService(repo, shortener.NewTimeGeneratorWithClock(clock))

	a, err := svc.CreateAlias(ctx, "https://a.example.com")
	require.NoError(t, err)
	b, err := svc.CreateAlias(ctx, "https://b.example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.Alias, b.Alias)
	expected := `
# HELP shortenurl_alias_generation_retries_total Alias regenerations caused by uniqueness conflicts.
# TYPE shortenurl_alias_generation_retries_total counter
shortenurl_alias_generation_retries_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(recorder.Registry(), strings.NewReader(expected), "shortenurl_alias_generation_retries_total"))
	repo.AssertExpectations(t)
}

func TestAliasService_CreateAlias_ContextCancelledDuringRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	repo := &repoMocks.AliasRepository{}
	repo.On("Create", ctx, "a", "http://example.com").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, domain.ErrAliasConflict).Once()

	recorder := metrics.NewRecorder()
	svc := NewAliasService(repo, &sequenceGenerator{aliases: []string{"a", "b"}}, recorder, slog.New(slog.DiscardHandler), Options{MaxAttempts: 3, RetryDelay: time.Hour})

	_, err := svc.CreateAlias(ctx, "http://example.com")
	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertExpectations(t)
}

func TestAliasService_GetAlias(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := &repoMocks.AliasRepository{}
		expected := record("1NnLxzC", "http://example.com")
		repo.On("Get", ctx, "1NnLxzC").Return(expected, nil)

		svc, recorder := newTestService(repo, &sequenceGenerator{})

		result, err := svc.GetAlias(ctx, "1NnLxzC")
		require.NoError(t, err)
		assert.Equal(t, expected, result)
		count, err := testutil.GatherAndCount(recorder.Registry(), "shortenurl_store_operations_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &repoMocks.AliasRepository{}
		repo.On("Get", ctx, "missing").Return(nil, fmt.Errorf("%w: missing", domain.ErrNotFound))

		svc, _ := newTestService(repo, &sequenceGenerator{})

		result, err := svc.GetAlias(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, result)
		repo.AssertExpectations(t)
	})
}

func TestAliasService_ListAliases(t *testing.T) {
	ctx := context.Background()
	opts := repository.ListOptions{Limit: 10, Offset: 20}

	repo := &repoMocks.AliasRepository{}
	expected := []*domain.AliasRecord{record("a", "https://a.com"), record("b", "https://b.com")}
	repo.On("List", ctx, opts).Return(expected, nil)

	svc, _ := newTestService(repo, &sequenceGenerator{})

	result, err := svc.ListAliases(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, expected, result)
	repo.AssertExpectations(t)
}

func TestAliasService_DeleteAlias(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		alias   string
		result  *domain.AliasRecord
		err     error
		wantErr error
	}{
		{
			name:   "successful deletion",
			alias:  "1NnLxzC",
			result: record("1NnLxzC", "http://example.com"),
		},
		{
			name:    "not found",
			alias:   "missing",
			err:     domain.ErrNotFound,
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &repoMocks.AliasRepository{}
			if tt.result != nil {
				repo.On("Delete", ctx, tt.alias).Return(tt.result, nil)
			} else {
				repo.On("Delete", ctx, tt.alias).Return(nil, tt.err)
			}

			svc, _ := newTestService(repo, &sequenceGenerator{})

			result, err := svc.DeleteAlias(ctx, tt.alias)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAliasService_FlushAliases(t *testing.T) {
	ctx := context.Background()

	t.Run("removes records", func(t *testing.T) {
		repo := &repoMocks.AliasRepository{}
		removed := []*domain.AliasRecord{record("a", "https://a.com")}
		repo.On("DeleteAll", ctx).Return(removed, nil)

		svc, _ := newTestService(repo, &sequenceGenerator{})

		result, err := svc.FlushAliases(ctx)
		require.NoError(t, err)
		assert.Equal(t, removed, result)
		repo.AssertExpectations(t)
	})

	t.Run("empty store", func(t *testing.T) {
		repo := &repoMocks.AliasRepository{}
		repo.On("DeleteAll", ctx).Return(nil, domain.ErrNotFound)

		svc, _ := newTestService(repo, &sequenceGenerator{})

		_, err := svc.FlushAliases(ctx)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestAliasService_MigrateAndClose(t *testing.T) {
	ctx := context.Background()

	repo := &repoMocks.AliasRepository{}
	repo.On("Migrate", ctx).Return(nil)
	repo.On("Close").Return(assert.AnError)

	svc, _ := newTestService(repo, &sequenceGenerator{})

	assert.NoError(t, svc.Migrate(ctx))

	err := svc.Close()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to close repository")
	repo.AssertExpectations(t)
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, metrics.ResultOK, resultOf(nil))
	assert.Equal(t, metrics.ResultNotFound, resultOf(fmt.Errorf("wrapped: %w", domain.ErrNotFound)))
	assert.Equal(t, metrics.ResultConflict, resultOf(domain.ErrAliasConflict))
	assert.Equal(t, metrics.ResultError, resultOf(domain.ErrConnection))
}
