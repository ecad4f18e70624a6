package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/repository"
)

// SlideRepository implements slide.Repository and queue.SlideRepository
// for SQLite.
type SlideRepository struct {
	db *DB
}

// NewSlideRepository creates a new SlideRepository
func NewSlideRepository(db *DB) *SlideRepository {
	return &SlideRepository{db: db}
}

const slideColumns = `
	id, queue_name, owner, name, position, duration, markup,
	enabled, sched, sched_t_s, sched_t_e, animation,
	lock_session, lock_acquired_at, lock_ttl, created_at, modified_at
`

// Create inserts a new slide with its collaborator list
func (r *SlideRepository) Create(ctx context.Context, s *slide.Slide) error {
	query := `
		INSERT INTO slides (` + slideColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	lockSession, lockAcquiredAt, lockTTL := lockFields(s.Lock)
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.QueueName,
		s.Owner,
		s.Name,
		s.Index,
		s.Duration,
		s.Markup,
		s.Enabled,
		s.Sched,
		s.SchedStart,
		s.SchedEnd,
		s.Animation,
		lockSession,
		lockAcquiredAt,
		lockTTL,
		s.CreatedAt,
		s.ModifiedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create slide: %w", err)
	}

	return r.replaceCollaborators(ctx, s.ID, s.Collaborators)
}

// Get retrieves a slide by ID
func (r *SlideRepository) Get(ctx context.Context, id string) (*slide.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE id = ?`

	s, err := scanSlide(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slide: %w", err)
	}

	collaborators, err := r.getCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Collaborators = collaborators
	return s, nil
}

// Update rewrites every mutable field of the slide, lock included
func (r *SlideRepository) Update(ctx context.Context, s *slide.Slide) error {
	query := `
		UPDATE slides
		SET queue_name = ?, name = ?, position = ?, duration = ?, markup = ?,
		    enabled = ?, sched = ?, sched_t_s = ?, sched_t_e = ?, animation = ?,
		    lock_session = ?, lock_acquired_at = ?, lock_ttl = ?, modified_at = ?
		WHERE id = ?
	`

	lockSession, lockAcquiredAt, lockTTL := lockFields(s.Lock)
	result, err := r.db.ExecContext(ctx, query,
		s.QueueName,
		s.Name,
		s.Index,
		s.Duration,
		s.Markup,
		s.Enabled,
		s.Sched,
		s.SchedStart,
		s.SchedEnd,
		s.Animation,
		lockSession,
		lockAcquiredAt,
		lockTTL,
		s.ModifiedAt,
		s.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to update slide: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return r.replaceCollaborators(ctx, s.ID, s.Collaborators)
}

// Delete removes a slide; collaborator rows cascade
func (r *SlideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slide: %w", err)
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

// ListByQueue returns the queue's slides in committed order, ties broken
// by id so the result is deterministic even mid-reconciliation
func (r *SlideRepository) ListByQueue(ctx context.Context, queueName string) ([]slide.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE queue_name = ? ORDER BY position ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue slides: %w", err)
	}
	defer rows.Close()

	var slides []slide.Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		slides = append(slides, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slide rows: %w", err)
	}

	for i := range slides {
		collaborators, err := r.getCollaborators(ctx, slides[i].ID)
		if err != nil {
			return nil, err
		}
		slides[i].Collaborators = collaborators
	}
	return slides, nil
}

// Reorder assigns position i to orderedIDs[i] within one transaction, so
// readers never observe a partially reconciled queue.
func (r *SlideRepository) Reorder(ctx context.Context, queueName string, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE slides SET position = ? WHERE id = ? AND queue_name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare reorder: %w", err)
	}
	defer stmt.Close()

	for i, id := range orderedIDs {
		if _, err := stmt.ExecContext(ctx, i, id, queueName); err != nil {
			return fmt.Errorf("failed to reorder slide %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

// DeleteByQueue removes every slide in the queue
func (r *SlideRepository) DeleteByQueue(ctx context.Context, queueName string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM slides WHERE queue_name = ?`, queueName)
	if err != nil {
		return fmt.Errorf("failed to delete queue slides: %w", err)
	}
	return nil
}

func (r *SlideRepository) getCollaborators(ctx context.Context, slideID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_name FROM slide_collaborators WHERE slide_id = ? ORDER BY user_name`, slideID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collaborators: %w", err)
	}
	defer rows.Close()

	collaborators := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		collaborators = append(collaborators, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collaborator rows: %w", err)
	}
	return collaborators, nil
}

func (r *SlideRepository) replaceCollaborators(ctx context.Context, slideID string, collaborators []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM slide_collaborators WHERE slide_id = ?`, slideID); err != nil {
		return fmt.Errorf("failed to clear collaborators: %w", err)
	}
	for _, name := range collaborators {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO slide_collaborators (slide_id, user_name) VALUES (?, ?)`, slideID, name); err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlide(row rowScanner) (*slide.Slide, error) {
	var s slide.Slide
	var lockSession sql.NullString
	var lockAcquiredAt sql.NullTime
	var lockTTL sql.NullInt64
	err := row.Scan(
		&s.ID,
		&s.QueueName,
		&s.Owner,
		&s.Name,
		&s.Index,
		&s.Duration,
		&s.Markup,
		&s.Enabled,
		&s.Sched,
		&s.SchedStart,
		&s.SchedEnd,
		&s.Animation,
		&lockSession,
		&lockAcquiredAt,
		&lockTTL,
		&s.CreatedAt,
		&s.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if lockSession.Valid {
		s.Lock = &slide.Lock{
			Session:    lockSession.String,
			AcquiredAt: lockAcquiredAt.Time,
			TTLSeconds: lockTTL.Int64,
		}
	}
	return &s, nil
}

func lockFields(l *slide.Lock) (session sql.NullString, acquiredAt sql.NullTime, ttl sql.NullInt64) {
	if l == nil {
		return
	}
	session = sql.NullString{String: l.Session, Valid: true}
	acquiredAt = sql.NullTime{Time: l.AcquiredAt, Valid: true}
	ttl = sql.NullInt64{Int64: l.TTLSeconds, Valid: true}
	return
}
