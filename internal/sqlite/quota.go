package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/repository"
)

// QuotaRepository implements quota.Repository for SQLite. Consume and
// Release are single conditional UPDATEs, so concurrent counters for the
// same user serialize at the database without a read-modify-write window.
type QuotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new QuotaRepository
func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Ensure seeds a counter with the given limit if none exists
func (r *QuotaRepository) Ensure(ctx context.Context, user, kind string, limit int64) error {
	query := `
		INSERT INTO quotas (user_name, kind, used, max_value)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(user_name, kind) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, user, kind, limit); err != nil {
		return fmt.Errorf("failed to ensure quota: %w", err)
	}
	return nil
}

// Get retrieves a counter
func (r *QuotaRepository) Get(ctx context.Context, user, kind string) (*quota.Quota, error) {
	query := `SELECT user_name, kind, used, max_value FROM quotas WHERE user_name = ? AND kind = ?`

	var q quota.Quota
	err := r.db.QueryRowContext(ctx, query, user, kind).Scan(&q.User, &q.Kind, &q.Used, &q.Limit)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}
	return &q, nil
}

// Consume increments the counter only while it is below its limit
func (r *QuotaRepository) Consume(ctx context.Context, user, kind string) error {
	query := `
		UPDATE quotas SET used = used + 1
		WHERE user_name = ? AND kind = ? AND used < max_value
	`
	result, err := r.db.ExecContext(ctx, query, user, kind)
	if err != nil {
		return fmt.Errorf("failed to consume quota: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM quotas WHERE user_name = ? AND kind = ?)`
		if err := r.db.QueryRowContext(ctx, checkQuery, user, kind).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check quota existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrLimitExceeded
	}
	return nil
}

// Release decrements the counter, clamped at zero
func (r *QuotaRepository) Release(ctx context.Context, user, kind string) error {
	query := `
		UPDATE quotas SET used = used - 1
		WHERE user_name = ? AND kind = ? AND used > 0
	`
	result, err := r.db.ExecContext(ctx, query, user, kind)
	if err != nil {
		return fmt.Errorf("failed to release quota: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM quotas WHERE user_name = ? AND kind = ?)`
		if err := r.db.QueryRowContext(ctx, checkQuery, user, kind).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check quota existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		// Counter already at zero; refunding is a no-op.
	}
	return nil
}
