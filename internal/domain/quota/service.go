package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mvartia/marquee/internal/repository"
)

// Service handles per-user quota accounting.
type Service struct {
	repo       Repository
	slideLimit int64
	logger     *slog.Logger
}

// NewService creates a new quota service. slideLimit is the limit seeded
// for users that have no ledger entry yet.
func NewService(repo Repository, slideLimit int64, logger *slog.Logger) *Service {
	return &Service{repo: repo, slideLimit: slideLimit, logger: logger}
}

// Consume charges one unit of the user's quota for the given kind,
// seeding the ledger entry with the default limit on first use. Returns
// ErrExceeded when the counter is already at its limit.
func (s *Service) Consume(ctx context.Context, user, kind string) error {
	if err := s.repo.Ensure(ctx, user, kind, s.limitFor(kind)); err != nil {
		return fmt.Errorf("ensuring quota entry: %w", err)
	}
	if err := s.repo.Consume(ctx, user, kind); err != nil {
		if errors.Is(err, repository.ErrLimitExceeded) {
			return ErrExceeded
		}
		return fmt.Errorf("consuming quota: %w", err)
	}
	return nil
}

// Release refunds one unit of the user's quota. The counter never goes
// below zero; refunding an empty counter is a no-op.
func (s *Service) Release(ctx context.Context, user, kind string) error {
	if err := s.repo.Release(ctx, user, kind); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("releasing quota: %w", err)
	}
	return nil
}

// Get returns the user's counter for the given kind.
func (s *Service) Get(ctx context.Context, user, kind string) (*Quota, error) {
	q, err := s.repo.Get(ctx, user, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuotaNotFound
		}
		return nil, fmt.Errorf("getting quota: %w", err)
	}
	return q, nil
}

func (s *Service) limitFor(kind string) int64 {
	if kind == KindSlides {
		return s.slideLimit
	}
	return 0
}
