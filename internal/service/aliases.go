package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/metrics"
	"github.com/joshdurbin/shortenurl/internal/repository"
	"github.com/joshdurbin/shortenurl/internal/shortener"
)

// Options tunes alias creation
type Options struct {
	// MaxAttempts bounds alias generation when the store reports a conflict
	MaxAttempts int
	// RetryDelay is waited between attempts so a time-based generator advances
	RetryDelay time.Duration
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		RetryDelay:  time.Millisecond,
	}
}

// aliasService implements AliasService interface
type aliasService struct {
	repo      repository.AliasRepository
	generator shortener.Generator
	metrics   *metrics.Recorder
	log       *slog.Logger
	opts      Options
}

// NewAliasService creates a new alias service
func NewAliasService(repo repository.AliasRepository, generator shortener.Generator, recorder *metrics.Recorder, log *slog.Logger, opts Options) AliasService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &aliasService{
		repo:      repo,
		generator: generator,
		metrics:   recorder,
		log:       log,
		opts:      opts,
	}
}

// CreateAlias mints an alias for url and persists it, regenerating on conflicts
func (s *aliasService) CreateAlias(ctx context.Context, url string) (*domain.AliasRecord, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: url cannot be empty", domain.ErrInvalidURL)
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		alias, err := s.generator.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate alias: %w", err)
		}

		record, err := observe(s, "create", func() (*domain.AliasRecord, error) {
			return s.repo.Create(ctx, alias, url)
		})
		if err == nil {
			s.log.Debug("alias created", "alias", record.Alias, "id", record.ID, "attempt", attempt)
			return record, nil
		}
		if !errors.Is(err, domain.ErrAliasConflict) {
			return nil, err
		}

		lastErr = err
		s.metrics.Retry()
		s.log.Warn("alias already exists, retrying generation", "alias", alias, "attempt", attempt, "max_attempts", s.opts.MaxAttempts)

		if attempt < s.opts.MaxAttempts {
			if err := sleep(ctx, s.opts.RetryDelay); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("failed to generate unique alias after %d attempts: %w", s.opts.MaxAttempts, lastErr)
}

// GetAlias retrieves the record for an alias
func (s *aliasService) GetAlias(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	return observe(s, "get", func() (*domain.AliasRecord, error) {
		return s.repo.Get(ctx, alias)
	})
}

// ListAliases retrieves stored records
func (s *aliasService) ListAliases(ctx context.Context, opts repository.ListOptions) ([]*domain.AliasRecord, error) {
	return observe(s, "list", func() ([]*domain.AliasRecord, error) {
		return s.repo.List(ctx, opts)
	})
}

// DeleteAlias removes the record for an alias
func (s *aliasService) DeleteAlias(ctx context.Context, alias string) (*domain.AliasRecord, error) {
	return observe(s, "delete", func() (*domain.AliasRecord, error) {
		return s.repo.Delete(ctx, alias)
	})
}

// FlushAliases removes every record
func (s *aliasService) FlushAliases(ctx context.Context) ([]*domain.AliasRecord, error) {
	return observe(s, "delete_all", func() ([]*domain.AliasRecord, error) {
		return s.repo.DeleteAll(ctx)
	})
}

// Migrate applies the store schema
func (s *aliasService) Migrate(ctx context.Context) error {
	_, err := observe(s, "migrate", func() (struct{}, error) {
		return struct{}{}, s.repo.Migrate(ctx)
	})
	return err
}

// Close closes the service and its dependencies
func (s *aliasService) Close() error {
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("failed to close repository: %w", err)
	}
	return nil
}

// observe runs one store operation, recording its outcome
func observe[T any](s *aliasService, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)

	outcome := resultOf(err)
	s.metrics.Observe(operation, outcome, elapsed)
	s.log.Debug("store operation", "operation", operation, "result", outcome, "elapsed", elapsed)

	return result, err
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrAliasConflict):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure aliasService implements AliasService interface
var _ AliasService = (*aliasService)(nil)
