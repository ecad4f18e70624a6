package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
)

// SlideRepository is a mock covering slide.Repository and
// queue.SlideRepository.
type SlideRepository struct {
	mock.Mock
}

func (m *SlideRepository) Create(ctx context.Context, s *slide.Slide) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SlideRepository) Get(ctx context.Context, id string) (*slide.Slide, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*slide.Slide); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SlideRepository) Update(ctx context.Context, s *slide.Slide) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SlideRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SlideRepository) ListByQueue(ctx context.Context, queueName string) ([]slide.Slide, error) {
	args := m.Called(ctx, queueName)
	if list, ok := args.Get(0).([]slide.Slide); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SlideRepository) Reorder(ctx context.Context, queueName string, orderedIDs []string) error {
	args := m.Called(ctx, queueName, orderedIDs)
	return args.Error(0)
}

func (m *SlideRepository) DeleteByQueue(ctx context.Context, queueName string) error {
	args := m.Called(ctx, queueName)
	return args.Error(0)
}

// QueueRepository is a mock for queue.Repository.
type QueueRepository struct {
	mock.Mock
}

func (m *QueueRepository) Ensure(ctx context.Context, name, owner string) error {
	args := m.Called(ctx, name, owner)
	return args.Error(0)
}

func (m *QueueRepository) Get(ctx context.Context, name string) (*queue.Queue, error) {
	args := m.Called(ctx, name)
	if q, ok := args.Get(0).(*queue.Queue); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QueueRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *QueueRepository) List(ctx context.Context) ([]queue.Summary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]queue.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// QuotaRepository is a mock for quota.Repository.
type QuotaRepository struct {
	mock.Mock
}

func (m *QuotaRepository) Ensure(ctx context.Context, user, kind string, limit int64) error {
	args := m.Called(ctx, user, kind, limit)
	return args.Error(0)
}

func (m *QuotaRepository) Get(ctx context.Context, user, kind string) (*quota.Quota, error) {
	args := m.Called(ctx, user, kind)
	if q, ok := args.Get(0).(*quota.Quota); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuotaRepository) Consume(ctx context.Context, user, kind string) error {
	args := m.Called(ctx, user, kind)
	return args.Error(0)
}

func (m *QuotaRepository) Release(ctx context.Context, user, kind string) error {
	args := m.Called(ctx, user, kind)
	return args.Error(0)
}

// QuotaLedger is a mock for the consume/release ledger used by the slide
// and queue services.
type QuotaLedger struct {
	mock.Mock
}

func (m *QuotaLedger) Consume(ctx context.Context, user, kind string) error {
	args := m.Called(ctx, user, kind)
	return args.Error(0)
}

func (m *QuotaLedger) Release(ctx context.Context, user, kind string) error {
	args := m.Called(ctx, user, kind)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Juggler is a mock for slide.Juggler.
type Juggler struct {
	mock.Mock
}

func (m *Juggler) Juggle(ctx context.Context, queueName, slideID string) (*slide.Slide, error) {
	args := m.Called(ctx, queueName, slideID)
	if s, ok := args.Get(0).(*slide.Slide); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
