package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/slide"
)

// SlideService is the slide surface the HTTP boundary needs.
type SlideService interface {
	Save(ctx context.Context, caller auth.Caller, sess auth.Session, req slide.SaveRequest) (*slide.Slide, error)
	Remove(ctx context.Context, caller auth.Caller, sess auth.Session, id string) error
	AcquireLock(ctx context.Context, caller auth.Caller, sess auth.Session, id string) (*slide.Slide, error)
	ReleaseLock(ctx context.Context, caller auth.Caller, sess auth.Session, id string) (*slide.Slide, error)
	Get(ctx context.Context, id string) (*slide.Slide, error)
}

// QueueService is the queue surface the HTTP boundary needs.
type QueueService interface {
	Get(ctx context.Context, name string) (*queue.Queue, error)
	List(ctx context.Context) ([]queue.Summary, error)
	Remove(ctx context.Context, caller auth.Caller, name string) error
}

// ActivityService is the activity log surface the HTTP boundary needs.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Server wires HTTP handlers.
type Server struct {
	slides     SlideService
	queues     QueueService
	activities ActivityService
	hub        *WatchHub
}

// NewServer creates the HTTP router with middleware.
func NewServer(slides SlideService, queues QueueService, activities ActivityService, hub *WatchHub, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{slides: slides, queues: queues, activities: activities, hub: hub}

	r.Get("/health", srv.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/slide/save", srv.handleSlideSave)
		r.Post("/slide/remove", srv.handleSlideRemove)
		r.Post("/slide/lock/acquire", srv.handleLockAcquire)
		r.Post("/slide/lock/release", srv.handleLockRelease)
		r.Get("/slide/get", srv.handleSlideGet)
		r.Post("/queue/remove", srv.handleQueueRemove)
		r.Get("/queue/get", srv.handleQueueGet)
		r.Get("/queue/list", srv.handleQueueList)
		r.Get("/queue/watch", srv.handleQueueWatch)
		r.Get("/activity/list", srv.handleActivityList)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// saveSlideRequest mirrors the save payload. Pointer fields distinguish
// absent from zero, so a full round-trip of a previously read slide is
// valid input. Unknown fields (owner, lock, assets) are accepted and
// ignored.
type saveSlideRequest struct {
	ID            *string  `json:"id"`
	Name          *string  `json:"name"`
	Index         *int     `json:"index"`
	Duration      *int     `json:"duration"`
	Markup        *string  `json:"markup"`
	Enabled       *bool    `json:"enabled"`
	Sched         *bool    `json:"sched"`
	SchedStart    *int64   `json:"sched_t_s"`
	SchedEnd      *int64   `json:"sched_t_e"`
	Animation     *int     `json:"animation"`
	QueueName     *string  `json:"queue_name"`
	Collaborators []string `json:"collaborators"`
}

func (s *Server) handleSlideSave(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	sess, _ := SessionFromContext(r.Context())

	var req saveSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, slide.ErrInvalidInput)
		return
	}

	saved, err := s.slides.Save(r.Context(), caller, sess, slide.SaveRequest{
		ID:            req.ID,
		Name:          req.Name,
		Index:         req.Index,
		Duration:      req.Duration,
		Markup:        req.Markup,
		Enabled:       req.Enabled,
		Sched:         req.Sched,
		SchedStart:    req.SchedStart,
		SchedEnd:      req.SchedEnd,
		Animation:     req.Animation,
		QueueName:     req.QueueName,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishQueue(r.Context(), saved.QueueName)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleSlideRemove(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())
	sess, _ := SessionFromContext(r.Context())

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}

	target, err := s.slides.Get(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.slides.Remove(r.Context(), caller, sess, req.ID); err != nil {
		writeError(w, err)
		return
	}

	s.publishQueue(r.Context(), target.QueueName)
	writeJSON(w, http.StatusOK, map[string]string{"id": req.ID})
}

func (s *Server) handleLockAcquire(w http.ResponseWriter, r *http.Request) {
	s.handleLock(w, r, s.slides.AcquireLock)
}

func (s *Server) handleLockRelease(w http.ResponseWriter, r *http.Request) {
	s.handleLock(w, r, s.slides.ReleaseLock)
}

func (s *Server) handleLock(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, auth.Caller, auth.Session, string) (*slide.Slide, error),
) {
	caller, _ := CallerFromContext(r.Context())
	sess, _ := SessionFromContext(r.Context())

	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}

	locked, err := op(r.Context(), caller, sess, req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, locked)
}

func (s *Server) handleSlideGet(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}
	sl, err := s.slides.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

func (s *Server) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}

	if err := s.queues.Remove(r.Context(), caller, req.Name); err != nil {
		writeError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.Publish(req.Name, QueueUpdate{Queue: req.Name, Removed: true, Slides: []slide.Slide{}})
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.Name})
}

func (s *Server) handleQueueGet(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, slide.ErrInvalidInput)
		return
	}
	q, err := s.queues.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.queues.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []queue.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	opts := activity.ListOptions{
		User:  r.URL.Query().Get("user"),
		Limit: 50,
	}
	if queueName := r.URL.Query().Get("queue"); queueName != "" {
		opts.QueueName = &queueName
	}
	if slideID := r.URL.Query().Get("slide"); slideID != "" {
		opts.SlideID = &slideID
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		activityType := activity.Type(typ)
		opts.Type = &activityType
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			writeError(w, slide.ErrInvalidInput)
			return
		}
		opts.Limit = n
	}

	entries, err := s.activities.GetRecentActivity(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// publishQueue pushes the committed queue order to watchers after a
// mutation. Best effort; a failed load only skips the push.
func (s *Server) publishQueue(ctx context.Context, name string) {
	if s.hub == nil {
		return
	}
	q, err := s.queues.Get(ctx, name)
	if err != nil {
		return
	}
	slides := q.Slides
	if slides == nil {
		slides = []slide.Slide{}
	}
	s.hub.Publish(name, QueueUpdate{Queue: name, Slides: slides})
}
