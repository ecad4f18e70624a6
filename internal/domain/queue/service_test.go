package queue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/repository"
	"github.com/mvartia/marquee/internal/repository/mocks"
)

func newService(
	queues *mocks.QueueRepository,
	slides *mocks.SlideRepository,
	quotas *mocks.QuotaLedger,
) *queue.Service {
	return queue.NewService(queues, slides, quotas, nil, nil)
}

func TestQueueService_Juggle_ReassignsContiguousIndices(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	// Two slides advertise index 1; ids break the tie.
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", QueueName: "default", Index: 0},
		{ID: "c", QueueName: "default", Index: 1},
		{ID: "b", QueueName: "default", Index: 1},
	}, nil)
	slides.On("Reorder", ctx, "default", []string{"a", "b", "c"}).Return(nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	out, err := svc.Juggle(ctx, "default", "c")
	require.NoError(t, err)
	require.Equal(t, 2, out.Index)
}

func TestQueueService_Juggle_ClosesGaps(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", QueueName: "default", Index: 0},
		{ID: "b", QueueName: "default", Index: 5},
		{ID: "c", QueueName: "default", Index: 9},
	}, nil)
	slides.On("Reorder", ctx, "default", []string{"a", "b", "c"}).Return(nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	out, err := svc.Juggle(ctx, "default", "b")
	require.NoError(t, err)
	require.Equal(t, 1, out.Index)

	// Reconciling an already reconciled queue changes nothing.
	out, err = svc.Juggle(ctx, "default", "b")
	require.NoError(t, err)
	require.Equal(t, 1, out.Index)
}

func TestQueueService_Juggle_NoTarget(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{}, nil)
	slides.On("Reorder", ctx, "default", []string{}).Return(nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	out, err := svc.Juggle(ctx, "default", "")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestQueueService_Juggle_TargetMissing(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", QueueName: "default", Index: 0},
	}, nil)
	slides.On("Reorder", ctx, "default", mock.Anything).Return(nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	_, err := svc.Juggle(ctx, "default", "ghost")
	require.ErrorIs(t, err, slide.ErrSlideNotFound)
}

func TestQueueService_Juggle_QueueNotFound(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	queues.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := newService(queues, &mocks.SlideRepository{}, &mocks.QuotaLedger{})
	_, err := svc.Juggle(ctx, "missing", "")
	require.ErrorIs(t, err, queue.ErrQueueNotFound)
}

func TestQueueService_Get(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default", Owner: "alice"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", QueueName: "default", Index: 0},
		{ID: "b", QueueName: "default", Index: 1},
	}, nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	q, err := svc.Get(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "alice", q.Owner)
	require.Len(t, q.Slides, 2)
}

func TestQueueService_Remove_AdminCascade(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}
	quotas := &mocks.QuotaLedger{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", Owner: "alice"},
		{ID: "b", Owner: "bob"},
		{ID: "c", Owner: "alice"},
	}, nil)
	slides.On("DeleteByQueue", ctx, "default").Return(nil)
	queues.On("Delete", ctx, "default").Return(nil)
	quotas.On("Release", ctx, "alice", quota.KindSlides).Return(nil)
	quotas.On("Release", ctx, "bob", quota.KindSlides).Return(nil)

	svc := newService(queues, slides, quotas)
	admin := auth.Caller{Name: "root", Groups: []string{"admin"}}
	require.NoError(t, svc.Remove(ctx, admin, "default"))

	// One refund per deleted slide, charged back to each slide's owner.
	quotas.AssertNumberOfCalls(t, "Release", 3)
}

func TestQueueService_Remove_EditorOwningAllSlides(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}
	quotas := &mocks.QuotaLedger{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", Owner: "alice"},
	}, nil)
	slides.On("DeleteByQueue", ctx, "default").Return(nil)
	queues.On("Delete", ctx, "default").Return(nil)
	quotas.On("Release", ctx, "alice", quota.KindSlides).Return(nil)

	svc := newService(queues, slides, quotas)
	alice := auth.Caller{Name: "alice", Groups: []string{"editor"}}
	require.NoError(t, svc.Remove(ctx, alice, "default"))
}

func TestQueueService_Remove_EditorDeniedForeignSlide(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{
		{ID: "a", Owner: "alice"},
		{ID: "b", Owner: "bob"},
	}, nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	alice := auth.Caller{Name: "alice", Groups: []string{"editor"}}
	err := svc.Remove(ctx, alice, "default")
	require.ErrorIs(t, err, queue.ErrNotAuthorized)

	slides.AssertNotCalled(t, "DeleteByQueue", mock.Anything, mock.Anything)
}

func TestQueueService_Remove_ViewerDenied(t *testing.T) {
	ctx := context.Background()

	queues := &mocks.QueueRepository{}
	slides := &mocks.SlideRepository{}

	queues.On("Get", ctx, "default").Return(&queue.Queue{Name: "default"}, nil)
	slides.On("ListByQueue", ctx, "default").Return([]slide.Slide{}, nil)

	svc := newService(queues, slides, &mocks.QuotaLedger{})
	err := svc.Remove(ctx, auth.Caller{Name: "eve"}, "default")
	require.ErrorIs(t, err, queue.ErrNotAuthorized)
}
