package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/repository"
)

// QueueRepository implements queue.Repository for SQLite
type QueueRepository struct {
	db *DB
}

// NewQueueRepository creates a new QueueRepository
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Ensure creates the queue if it doesn't exist yet. The first slide
// referencing a queue name creates it, owned by that slide's creator.
func (r *QueueRepository) Ensure(ctx context.Context, name, owner string) error {
	query := `
		INSERT INTO queues (name, owner, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, name, owner, time.Now()); err != nil {
		return fmt.Errorf("failed to ensure queue: %w", err)
	}
	return nil
}

// Get retrieves queue metadata by name
func (r *QueueRepository) Get(ctx context.Context, name string) (*queue.Queue, error) {
	query := `SELECT name, owner, created_at FROM queues WHERE name = ?`

	var q queue.Queue
	err := r.db.QueryRowContext(ctx, query, name).Scan(&q.Name, &q.Owner, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return &q, nil
}

// Delete removes a queue record. Slides must be removed first.
func (r *QueueRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM queues WHERE name = ?`, name)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to delete queue: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns summaries of all queues with their slide counts
func (r *QueueRepository) List(ctx context.Context) ([]queue.Summary, error) {
	query := `
		SELECT q.name, q.owner, COUNT(s.id) AS slide_count, q.created_at
		FROM queues q
		LEFT JOIN slides s ON s.queue_name = q.name
		GROUP BY q.name, q.owner, q.created_at
		ORDER BY q.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	var summaries []queue.Summary
	for rows.Next() {
		var s queue.Summary
		if err := rows.Scan(&s.Name, &s.Owner, &s.SlideCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue rows: %w", err)
	}
	return summaries, nil
}
