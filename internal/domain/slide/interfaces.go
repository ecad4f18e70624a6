package slide

import (
	"context"

	"github.com/mvartia/marquee/internal/domain/activity"
)

// Repository provides persistence for slides.
type Repository interface {
	Create(ctx context.Context, s *Slide) error
	Get(ctx context.Context, id string) (*Slide, error)
	Update(ctx context.Context, s *Slide) error
	Delete(ctx context.Context, id string) error
}

// QueueDirectory resolves queue existence. A queue is created implicitly
// by the first slide that references it.
type QueueDirectory interface {
	Ensure(ctx context.Context, name, owner string) error
}

// Juggler reconciles a queue's slide ordering and returns the committed
// view of the target slide.
type Juggler interface {
	Juggle(ctx context.Context, queueName, slideID string) (*Slide, error)
}

// QuotaLedger charges and refunds per-user slide quota.
type QuotaLedger interface {
	Consume(ctx context.Context, user, kind string) error
	Release(ctx context.Context, user, kind string) error
}

// ActivityRepository logs slide activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
}
