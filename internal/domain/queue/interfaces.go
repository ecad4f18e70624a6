package queue

import (
	"context"

	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/slide"
)

// Repository provides persistence for queue records.
type Repository interface {
	Ensure(ctx context.Context, name, owner string) error
	Get(ctx context.Context, name string) (*Queue, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Summary, error)
}

// SlideRepository provides the slide-set operations reconciliation needs.
// Reorder must apply the whole assignment as a single unit: a concurrent
// reconciliation of the same queue is serialized at the storage boundary.
type SlideRepository interface {
	ListByQueue(ctx context.Context, queueName string) ([]slide.Slide, error)
	Reorder(ctx context.Context, queueName string, orderedIDs []string) error
	DeleteByQueue(ctx context.Context, queueName string) error
}

// QuotaLedger refunds slide quota when a queue cascade deletes slides.
type QuotaLedger interface {
	Release(ctx context.Context, user, kind string) error
}

// ActivityRepository logs queue activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
}
