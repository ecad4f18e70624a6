package testserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvartia/marquee/internal/auth"
	"github.com/mvartia/marquee/internal/domain/activity"
	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/sqlite"
	"github.com/mvartia/marquee/internal/transport"
)

// Options tunes the engine policies under test.
type Options struct {
	LockTTL        time.Duration
	SlideLimit     int64
	SchedulePolicy slide.SchedulePolicy
}

// TestServer runs the full HTTP API against an in-memory database.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Slides *slide.Service
	Queues *queue.Service
	Quotas *quota.Service
}

// New starts a test server with default engine options.
func New(t *testing.T) *TestServer {
	return NewWithOptions(t, Options{
		LockTTL:        10 * time.Minute,
		SlideLimit:     46,
		SchedulePolicy: slide.ScheduleDerive,
	})
}

// NewWithOptions starts a test server with explicit engine options.
func NewWithOptions(t *testing.T, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	slideRepo := sqlite.NewSlideRepository(db)
	queueRepo := sqlite.NewQueueRepository(db)
	quotaRepo := sqlite.NewQuotaRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	quotaSvc := quota.NewService(quotaRepo, opts.SlideLimit, nil)
	activitySvc := activity.NewService(activityRepo, nil)
	queueSvc := queue.NewService(queueRepo, slideRepo, quotaSvc, activityRepo, nil)
	slideSvc := slide.NewService(
		slideRepo, queueRepo, queueSvc, quotaSvc, activityRepo,
		opts.LockTTL, opts.SchedulePolicy, nil,
	)

	hub := transport.NewWatchHub()
	resolver := &apiKeyResolver{db: db}
	server := httptest.NewServer(transport.NewServer(slideSvc, queueSvc, activitySvc, hub, transport.AuthMiddleware(resolver)))

	ts := &TestServer{
		Server: server,
		DB:     db,
		Slides: slideSvc,
		Queues: queueSvc,
		Quotas: quotaSvc,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddUser creates a user with the given groups and an API key bound to
// the given session id.
func (ts *TestServer) AddUser(t *testing.T, name string, groups []string, token, sessionID string) {
	t.Helper()

	_, err := ts.DB.Exec(
		`INSERT INTO users (name, groups) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, strings.Join(groups, ","),
	)
	require.NoError(t, err)

	_, err = ts.DB.Exec(
		`INSERT INTO api_keys (key_hash, user_name, session_id, created_at) VALUES (?, ?, ?, ?)`,
		hashToken(token), name, sessionID, time.Now(),
	)
	require.NoError(t, err)
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveCaller(ctx context.Context, token string) (auth.Caller, auth.Session, error) {
	var userName, groups, sessionID string
	err := r.db.QueryRowContext(ctx,
		`SELECT u.name, u.groups, k.session_id
		 FROM api_keys k JOIN users u ON u.name = k.user_name
		 WHERE k.key_hash = ?`,
		hashToken(token),
	).Scan(&userName, &groups, &sessionID)
	if err != nil {
		return auth.Caller{}, auth.Session{}, transport.ErrUnauthorized
	}

	var groupList []string
	if groups != "" {
		groupList = strings.Split(groups, ",")
	}
	return auth.Caller{Name: userName, Groups: groupList}, auth.Session{ID: sessionID, User: userName}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
