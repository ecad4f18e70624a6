package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/repository"
)

// Service owns the queue reconciliation algorithm and queue lifecycle.
type Service struct {
	queues     Repository
	slides     SlideRepository
	quotas     QuotaLedger
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new queue service.
func NewService(
	queues Repository,
	slides SlideRepository,
	quotas QuotaLedger,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		queues:     queues,
		slides:     slides,
		quotas:     quotas,
		activities: activities,
		logger:     logger,
	}
}

// Juggle restores the queue's ordering invariant after any structural
// change: slides are sorted by (advertised index, id) and reassigned
// contiguous indices from 0. The id tie-break makes the order total, so
// two concurrent requests claiming the same index resolve
// deterministically instead of corrupting the queue. The whole assignment
// is persisted as one unit.
//
// When slideID is non-empty the committed view of that slide is returned;
// callers must treat it as authoritative since the committed index may
// differ from the one they submitted.
func (s *Service) Juggle(ctx context.Context, queueName, slideID string) (*slide.Slide, error) {
	if _, err := s.queues.Get(ctx, queueName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, fmt.Errorf("loading queue: %w", err)
	}

	slides, err := s.slides.ListByQueue(ctx, queueName)
	if err != nil {
		return nil, fmt.Errorf("loading queue slides: %w", err)
	}

	sort.SliceStable(slides, func(i, j int) bool {
		if slides[i].Index != slides[j].Index {
			return slides[i].Index < slides[j].Index
		}
		return slides[i].ID < slides[j].ID
	})

	ids := make([]string, len(slides))
	for i := range slides {
		slides[i].Index = i
		ids[i] = slides[i].ID
	}

	if err := s.slides.Reorder(ctx, queueName, ids); err != nil {
		return nil, fmt.Errorf("persisting queue order: %w", err)
	}

	if slideID == "" {
		return nil, nil
	}
	for i := range slides {
		if slides[i].ID == slideID {
			out := slides[i]
			return &out, nil
		}
	}
	return nil, slide.ErrSlideNotFound
}

// Get returns the queue with its slides resolved in committed order.
func (s *Service) Get(ctx context.Context, name string) (*Queue, error) {
	q, err := s.queues.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	slides, err := s.slides.ListByQueue(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading queue slides: %w", err)
	}
	q.Slides = slides
	return q, nil
}

// List returns summaries of all queues.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.queues.List(ctx)
}

// Remove deletes a queue and every slide in it, refunding each removed
// slide against its owner's quota. Authorized for admin, or for an editor
// who owns every slide currently in the queue. No reconciliation is needed
// for the removed queue and no other queue is touched.
func (s *Service) Remove(ctx context.Context, caller auth.Caller, name string) error {
	q, err := s.queues.Get(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQueueNotFound
		}
		return fmt.Errorf("loading queue: %w", err)
	}

	slides, err := s.slides.ListByQueue(ctx, name)
	if err != nil {
		return fmt.Errorf("loading queue slides: %w", err)
	}

	if !caller.IsAdmin() {
		if !caller.IsEditor() {
			return ErrNotAuthorized
		}
		for i := range slides {
			if slides[i].Owner != caller.Name {
				return ErrNotAuthorized
			}
		}
	}

	if err := s.slides.DeleteByQueue(ctx, name); err != nil {
		return fmt.Errorf("deleting queue slides: %w", err)
	}
	if err := s.queues.Delete(ctx, name); err != nil {
		return fmt.Errorf("deleting queue: %w", err)
	}
	for i := range slides {
		if err := s.quotas.Release(ctx, slides[i].Owner, quota.KindSlides); err != nil {
			return fmt.Errorf("releasing quota for %s: %w", slides[i].Owner, err)
		}
	}

	if s.activities != nil {
		queueName := q.Name
		_ = s.activities.Log(ctx, &activity.Entry{
			User:      caller.Name,
			QueueName: &queueName,
			Type:      activity.TypeQueueRemoved,
			Summary:   fmt.Sprintf("removed queue %s with %d slides", q.Name, len(slides)),
		})
	}
	return nil
}
