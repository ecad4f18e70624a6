package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mvartia/marquee/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (user_name, slide_id, queue_name, activity_type, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.User,
		entry.SlideID,
		entry.QueueName,
		entry.Type,
		entry.Summary,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries matching the options, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT id, user_name, slide_id, queue_name, activity_type, summary, created_at
		FROM activity_log
	`

	args := []any{}
	conditions := []string{}

	if opts.User != "" {
		conditions = append(conditions, "user_name = ?")
		args = append(args, opts.User)
	}
	if opts.SlideID != nil {
		conditions = append(conditions, "slide_id = ?")
		args = append(args, *opts.SlideID)
	}
	if opts.QueueName != nil {
		conditions = append(conditions, "queue_name = ?")
		args = append(args, *opts.QueueName)
	}
	if opts.Type != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.Type)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.User,
			&entry.SlideID,
			&entry.QueueName,
			&entry.Type,
			&entry.Summary,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
