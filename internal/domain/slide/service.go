package slide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/repository"
)

// Service coordinates slide mutations: it sequences the lock check, field
// application, persistence, queue reconciliation and quota compensation
// for every create, modify and remove.
type Service struct {
	slides     Repository
	queues     QueueDirectory
	juggler    Juggler
	quotas     QuotaLedger
	activities ActivityRepository
	lockTTL    time.Duration
	schedule   SchedulePolicy
	logger     *slog.Logger
}

// NewService creates a new slide service.
func NewService(
	slides Repository,
	queues QueueDirectory,
	juggler Juggler,
	quotas QuotaLedger,
	activities ActivityRepository,
	lockTTL time.Duration,
	schedule SchedulePolicy,
	logger *slog.Logger,
) *Service {
	return &Service{
		slides:     slides,
		queues:     queues,
		juggler:    juggler,
		quotas:     quotas,
		activities: activities,
		lockTTL:    lockTTL,
		schedule:   schedule,
		logger:     logger,
	}
}

// Save creates or modifies a slide depending on whether the request
// carries an id, and routes the call through the matching authorization
// tier. The returned slide is the reconciled view committed by the queue,
// which clients must treat as authoritative; in particular the committed
// index may differ from the one submitted.
func (s *Service) Save(ctx context.Context, caller auth.Caller, sess auth.Session, req SaveRequest) (*Slide, error) {
	if err := ValidateSaveInput(req); err != nil {
		return nil, err
	}

	if req.ID != nil && *req.ID != "" {
		sl, err := s.load(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case caller.IsAdmin() || (caller.IsEditor() && caller.Name == sl.Owner):
			return s.modify(ctx, sess, sl, req, TierOwner)
		case caller.IsEditor() && sl.IsCollaborator(caller.Name):
			return s.modify(ctx, sess, sl, req, TierCollaborator)
		default:
			return nil, ErrNotAuthorized
		}
	}

	if !caller.IsAdmin() && !caller.IsEditor() {
		return nil, ErrNotAuthorized
	}
	return s.create(ctx, caller, sess, req)
}

// create allocates a new slide, locks it for the creating session, applies
// the submitted fields and charges the caller's slide quota. Quota is
// charged after the slide is persisted, so a failed charge triggers the
// compensating removal before the error is surfaced.
func (s *Service) create(ctx context.Context, caller auth.Caller, sess auth.Session, req SaveRequest) (*Slide, error) {
	now := time.Now()
	sl := &Slide{
		ID:         uuid.NewString(),
		Owner:      caller.Name,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	// A fresh slide carries no lock, so this cannot conflict.
	_ = Acquire(sl, sess, s.lockTTL, now)

	applyFields(sl, req, TierOwner)
	if err := CheckSchedule(sl, s.schedule, now); err != nil {
		return nil, err
	}

	if err := s.queues.Ensure(ctx, sl.QueueName, caller.Name); err != nil {
		return nil, fmt.Errorf("ensuring queue: %w", err)
	}
	if err := s.slides.Create(ctx, sl); err != nil {
		return nil, fmt.Errorf("creating slide: %w", err)
	}

	if err := s.quotas.Consume(ctx, caller.Name, quota.KindSlides); err != nil {
		if errors.Is(err, quota.ErrExceeded) {
			s.rollbackCreate(ctx, caller, sl)
			return nil, err
		}
		s.rollbackCreate(ctx, caller, sl)
		return nil, fmt.Errorf("consuming quota: %w", err)
	}

	s.log(ctx, caller, activity.TypeSlideCreated, sl, fmt.Sprintf("created slide %s", sl.ID))
	return s.finish(ctx, sl)
}

// rollbackCreate is the compensating step of a failed creation: the slide
// row is deleted so the queue never lists it and no quota stays charged
// without a slide backing it. There is no cross-entity transaction to
// lean on, so the undo is explicit.
func (s *Service) rollbackCreate(ctx context.Context, caller auth.Caller, sl *Slide) {
	if err := s.slides.Delete(ctx, sl.ID); err != nil {
		if s.logger != nil {
			s.logger.Error("creation rollback failed, slide may be orphaned",
				"slide", sl.ID, "queue", sl.QueueName, "error", err)
		}
		return
	}
	s.log(ctx, caller, activity.TypeQuotaDenied, sl, fmt.Sprintf("rolled back slide %s, quota exhausted", sl.ID))
}

// modify applies a save request to an existing slide under the lock
// precondition.
func (s *Service) modify(ctx context.Context, sess auth.Session, sl *Slide, req SaveRequest, tier Tier) (*Slide, error) {
	now := time.Now()
	if err := EnsureLocked(sl, sess, now); err != nil {
		return nil, err
	}

	previousQueue := sl.QueueName
	applyFields(sl, req, tier)
	if err := CheckSchedule(sl, s.schedule, now); err != nil {
		return nil, err
	}
	sl.ModifiedAt = now

	if sl.QueueName != previousQueue {
		if err := s.queues.Ensure(ctx, sl.QueueName, sl.Owner); err != nil {
			return nil, fmt.Errorf("ensuring queue: %w", err)
		}
	}

	out, err := s.finish(ctx, sl)
	if err != nil {
		return nil, err
	}

	// Moving a slide leaves a gap in the queue it came from; close it.
	if sl.QueueName != previousQueue {
		if _, err := s.juggler.Juggle(ctx, previousQueue, ""); err != nil {
			return nil, fmt.Errorf("reconciling previous queue: %w", err)
		}
	}

	s.log(ctx, auth.Caller{Name: sess.User}, activity.TypeSlideUpdated, sl, fmt.Sprintf("updated slide %s", sl.ID))
	return out, nil
}

// finish persists the slide and reconciles its queue. The caller receives
// the slide as the queue committed it, not as submitted.
func (s *Service) finish(ctx context.Context, sl *Slide) (*Slide, error) {
	if err := s.slides.Update(ctx, sl); err != nil {
		return nil, fmt.Errorf("persisting slide: %w", err)
	}
	out, err := s.juggler.Juggle(ctx, sl.QueueName, sl.ID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a slide, refunds the owner's quota and reconciles the
// remaining queue. Authorized for admin or the owning editor; gated on the
// same lock precondition as modify.
func (s *Service) Remove(ctx context.Context, caller auth.Caller, sess auth.Session, id string) error {
	sl, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && !(caller.IsEditor() && caller.Name == sl.Owner) {
		return ErrNotAuthorized
	}
	if err := EnsureLocked(sl, sess, time.Now()); err != nil {
		return err
	}

	if err := s.slides.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting slide: %w", err)
	}
	if err := s.quotas.Release(ctx, sl.Owner, quota.KindSlides); err != nil {
		return fmt.Errorf("releasing quota: %w", err)
	}
	if _, err := s.juggler.Juggle(ctx, sl.QueueName, ""); err != nil {
		return fmt.Errorf("reconciling queue: %w", err)
	}

	s.log(ctx, caller, activity.TypeSlideRemoved, sl, fmt.Sprintf("removed slide %s", sl.ID))
	return nil
}

// AcquireLock claims the slide's edit lock for the calling session.
// Authorized for admin, the owning editor, or a collaborating editor.
func (s *Service) AcquireLock(ctx context.Context, caller auth.Caller, sess auth.Session, id string) (*Slide, error) {
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayLock(caller, sl) {
		return nil, ErrNotAuthorized
	}
	if err := Acquire(sl, sess, s.lockTTL, time.Now()); err != nil {
		return nil, err
	}
	if err := s.slides.Update(ctx, sl); err != nil {
		return nil, fmt.Errorf("persisting lock: %w", err)
	}
	s.log(ctx, caller, activity.TypeLockAcquired, sl, fmt.Sprintf("locked slide %s", sl.ID))
	return sl, nil
}

// ReleaseLock releases the slide's edit lock held by the calling session.
func (s *Service) ReleaseLock(ctx context.Context, caller auth.Caller, sess auth.Session, id string) (*Slide, error) {
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayLock(caller, sl) {
		return nil, ErrNotAuthorized
	}
	if err := Release(sl, sess, time.Now()); err != nil {
		return nil, err
	}
	if err := s.slides.Update(ctx, sl); err != nil {
		return nil, fmt.Errorf("persisting lock release: %w", err)
	}
	s.log(ctx, caller, activity.TypeLockReleased, sl, fmt.Sprintf("unlocked slide %s", sl.ID))
	return sl, nil
}

// Get returns a slide by ID.
func (s *Service) Get(ctx context.Context, id string) (*Slide, error) {
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (*Slide, error) {
	sl, err := s.slides.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlideNotFound
		}
		return nil, fmt.Errorf("loading slide: %w", err)
	}
	return sl, nil
}

func (s *Service) mayLock(caller auth.Caller, sl *Slide) bool {
	if caller.IsAdmin() {
		return true
	}
	if !caller.IsEditor() {
		return false
	}
	return caller.Name == sl.Owner || sl.IsCollaborator(caller.Name)
}

func (s *Service) log(ctx context.Context, caller auth.Caller, typ activity.Type, sl *Slide, summary string) {
	if s.activities == nil {
		return
	}
	id := sl.ID
	queueName := sl.QueueName
	_ = s.activities.Log(ctx, &activity.Entry{
		User:      caller.Name,
		SlideID:   &id,
		QueueName: &queueName,
		Type:      typ,
		Summary:   summary,
	})
}
