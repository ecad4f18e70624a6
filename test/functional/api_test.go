package functional_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
	"github.com/mvartia/marquee/internal/testserver"
)

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doPost(t *testing.T, ts *testserver.TestServer, token, path string, payload any) (int, json.RawMessage) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}

func doGet(t *testing.T, ts *testserver.TestServer, token, path string) (int, json.RawMessage) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}

func errorCode(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var envelope apiErrorEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Error.Code
}

func slidePayload(name, queueName string, index int) map[string]any {
	return map[string]any{
		"name":          name,
		"index":         index,
		"duration":      10,
		"markup":        "<h1>" + name + "</h1>",
		"enabled":       true,
		"sched":         false,
		"sched_t_s":     0,
		"sched_t_e":     0,
		"animation":     0,
		"queue_name":    queueName,
		"collaborators": []string{},
	}
}

func saveSlide(t *testing.T, ts *testserver.TestServer, token string, payload map[string]any) slide.Slide {
	t.Helper()
	status, raw := doPost(t, ts, token, "/api/v1/slide/save", payload)
	require.Equal(t, http.StatusOK, status, "save failed: %s", string(raw))
	var s slide.Slide
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestSlideLifecycle(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	created := saveSlide(t, ts, "alice-token", slidePayload("welcome", "default", 0))
	require.NotEmpty(t, created.ID)
	require.Equal(t, 0, created.Index)
	require.Equal(t, "alice", created.Owner)
	// Creation leaves the slide locked for the creating session.
	require.NotNil(t, created.Lock)
	require.Equal(t, "sess-alice", created.Lock.Session)

	// The creating session may modify immediately without reacquiring.
	update := slidePayload("welcome v2", "default", 0)
	update["id"] = created.ID
	modified := saveSlide(t, ts, "alice-token", update)
	require.Equal(t, "welcome v2", modified.Name)

	status, _ := doPost(t, ts, "alice-token", "/api/v1/slide/remove", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)

	status, raw := doGet(t, ts, "alice-token", "/api/v1/slide/get?id="+created.ID)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "SLIDE_NOT_FOUND", errorCode(t, raw))
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	ts := testserver.New(t)

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/api/v1/queue/list", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestViewerCannotCreate(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "eve", nil, "eve-token", "sess-eve")

	status, raw := doPost(t, ts, "eve-token", "/api/v1/slide/save", slidePayload("nope", "default", 0))
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "NOT_AUTHORIZED", errorCode(t, raw))
}

func TestQueueOrderReconciliation(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	first := saveSlide(t, ts, "alice-token", slidePayload("one", "default", 0))
	// Both newcomers claim index 0; the committed order is decided by
	// the reconciliation, and the response reports where each landed.
	second := saveSlide(t, ts, "alice-token", slidePayload("two", "default", 0))
	third := saveSlide(t, ts, "alice-token", slidePayload("three", "default", 0))

	status, raw := doGet(t, ts, "alice-token", "/api/v1/queue/get?name=default")
	require.Equal(t, http.StatusOK, status)

	var q struct {
		Name   string        `json:"name"`
		Slides []slide.Slide `json:"slides"`
	}
	require.NoError(t, json.Unmarshal(raw, &q))
	require.Len(t, q.Slides, 3)
	for i, s := range q.Slides {
		require.Equal(t, i, s.Index, "indices must be contiguous from zero")
	}

	ids := map[string]bool{first.ID: true, second.ID: true, third.ID: true}
	for _, s := range q.Slides {
		require.True(t, ids[s.ID])
	}
}

func TestLockContention(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")
	ts.AddUser(t, "bob", []string{"editor"}, "bob-token", "sess-bob")

	payload := slidePayload("shared", "default", 0)
	payload["collaborators"] = []string{"bob"}
	created := saveSlide(t, ts, "alice-token", payload)

	// Alice's creating session still holds the lock.
	status, raw := doPost(t, ts, "bob-token", "/api/v1/slide/lock/acquire", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusLocked, status)
	require.Equal(t, "LOCK_CONFLICT", errorCode(t, raw))

	update := slidePayload("hijack", "default", 0)
	update["id"] = created.ID
	status, raw = doPost(t, ts, "bob-token", "/api/v1/slide/save", update)
	require.Equal(t, http.StatusFailedDependency, status)
	require.Equal(t, "LOCKED_BY_OTHER", errorCode(t, raw))

	status, _ = doPost(t, ts, "alice-token", "/api/v1/slide/lock/release", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)

	// Released is not the same as locked by bob: writing still fails.
	status, raw = doPost(t, ts, "bob-token", "/api/v1/slide/save", update)
	require.Equal(t, http.StatusFailedDependency, status)
	require.Equal(t, "NOT_LOCKED", errorCode(t, raw))

	status, _ = doPost(t, ts, "bob-token", "/api/v1/slide/lock/acquire", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)

	modified := saveSlide(t, ts, "bob-token", update)
	require.Equal(t, "hijack", modified.Name)
}

func TestLockExpiry(t *testing.T) {
	ts := testserver.NewWithOptions(t, testserver.Options{
		LockTTL:        time.Second,
		SlideLimit:     46,
		SchedulePolicy: slide.ScheduleDerive,
	})
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")
	ts.AddUser(t, "bob", []string{"editor"}, "bob-token", "sess-bob")

	payload := slidePayload("stale", "default", 0)
	payload["collaborators"] = []string{"bob"}
	created := saveSlide(t, ts, "alice-token", payload)

	status, _ := doPost(t, ts, "bob-token", "/api/v1/slide/lock/acquire", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusLocked, status)

	time.Sleep(1100 * time.Millisecond)

	// The expired lock no longer blocks anyone.
	status, raw := doPost(t, ts, "bob-token", "/api/v1/slide/lock/acquire", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status, "acquire after expiry failed: %s", string(raw))
}

func TestQuotaLimit(t *testing.T) {
	ts := testserver.NewWithOptions(t, testserver.Options{
		LockTTL:        10 * time.Minute,
		SlideLimit:     1,
		SchedulePolicy: slide.ScheduleDerive,
	})
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	saveSlide(t, ts, "alice-token", slidePayload("only", "default", 0))

	status, raw := doPost(t, ts, "alice-token", "/api/v1/slide/save", slidePayload("denied", "default", 1))
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "QUOTA_EXCEEDED", errorCode(t, raw))

	// The rejected slide must not have leaked into the queue, and the
	// failed attempt must not have consumed quota.
	status, rawQueue := doGet(t, ts, "alice-token", "/api/v1/queue/get?name=default")
	require.Equal(t, http.StatusOK, status)
	var q struct {
		Slides []slide.Slide `json:"slides"`
	}
	require.NoError(t, json.Unmarshal(rawQueue, &q))
	require.Len(t, q.Slides, 1)

	counter, err := ts.Quotas.Get(context.Background(), "alice", quota.KindSlides)
	require.NoError(t, err)
	require.Equal(t, int64(1), counter.Used)

	// Removing the slide refunds the quota; creation works again.
	status, _ = doPost(t, ts, "alice-token", "/api/v1/slide/remove", map[string]string{"id": q.Slides[0].ID})
	require.Equal(t, http.StatusOK, status)
	saveSlide(t, ts, "alice-token", slidePayload("replacement", "default", 0))
}

func TestCollaboratorFieldRestrictions(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")
	ts.AddUser(t, "bob", []string{"editor"}, "bob-token", "sess-bob")

	payload := slidePayload("shared", "default", 0)
	payload["collaborators"] = []string{"bob"}
	created := saveSlide(t, ts, "alice-token", payload)

	status, _ := doPost(t, ts, "alice-token", "/api/v1/slide/lock/release", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)
	status, _ = doPost(t, ts, "bob-token", "/api/v1/slide/lock/acquire", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)

	update := slidePayload("edited by bob", "elsewhere", 0)
	update["id"] = created.ID
	update["collaborators"] = []string{"mallory"}
	modified := saveSlide(t, ts, "bob-token", update)

	// Content fields apply; queue membership and the collaborator list
	// are silently kept as they were.
	require.Equal(t, "edited by bob", modified.Name)
	require.Equal(t, "default", modified.QueueName)
	require.Equal(t, []string{"bob"}, modified.Collaborators)
}

func TestQueueRemoveCascade(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "root", []string{"admin"}, "root-token", "sess-root")
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")
	ts.AddUser(t, "bob", []string{"editor"}, "bob-token", "sess-bob")

	saveSlide(t, ts, "alice-token", slidePayload("a1", "shared", 0))
	saveSlide(t, ts, "bob-token", slidePayload("b1", "shared", 1))

	// Editors cannot remove a queue containing someone else's slides.
	status, raw := doPost(t, ts, "alice-token", "/api/v1/queue/remove", map[string]string{"name": "shared"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "NOT_AUTHORIZED", errorCode(t, raw))

	status, _ = doPost(t, ts, "root-token", "/api/v1/queue/remove", map[string]string{"name": "shared"})
	require.Equal(t, http.StatusOK, status)

	status, raw = doGet(t, ts, "root-token", "/api/v1/queue/get?name=shared")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "QUEUE_NOT_FOUND", errorCode(t, raw))

	// Every deleted slide is refunded to its own owner.
	for _, user := range []string{"alice", "bob"} {
		counter, err := ts.Quotas.Get(context.Background(), user, quota.KindSlides)
		require.NoError(t, err)
		require.Equal(t, int64(0), counter.Used, "quota for %s not refunded", user)
	}
}

func TestInvalidSchedule(t *testing.T) {
	ts := testserver.NewWithOptions(t, testserver.Options{
		LockTTL:        10 * time.Minute,
		SlideLimit:     46,
		SchedulePolicy: slide.ScheduleDerive,
	})
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	payload := slidePayload("backwards", "default", 0)
	payload["sched"] = true
	payload["sched_t_s"] = 2000
	payload["sched_t_e"] = 1000

	status, raw := doPost(t, ts, "alice-token", "/api/v1/slide/save", payload)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "INVALID_SCHEDULE", errorCode(t, raw))
}

func TestActivityList(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	created := saveSlide(t, ts, "alice-token", slidePayload("logged", "default", 0))
	status, _ := doPost(t, ts, "alice-token", "/api/v1/slide/remove", map[string]string{"id": created.ID})
	require.Equal(t, http.StatusOK, status)

	status, raw := doGet(t, ts, "alice-token", "/api/v1/activity/list?user=alice")
	require.Equal(t, http.StatusOK, status)

	var entries []struct {
		User    string `json:"user"`
		Type    string `json:"type"`
		SlideID string `json:"slide_id"`
	}
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.NotEmpty(t, entries)

	types := make(map[string]bool)
	for _, e := range entries {
		require.Equal(t, "alice", e.User)
		types[e.Type] = true
	}
	require.True(t, types["slide_created"])
	require.True(t, types["slide_removed"])
}

func TestQueueWatch(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser(t, "alice", []string{"editor"}, "alice-token", "sess-alice")

	saveSlide(t, ts, "alice-token", slidePayload("first", "default", 0))

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/api/v1/queue/watch?name=default"
	header := http.Header{"Authorization": []string{"Bearer alice-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	var initial struct {
		Queue  string        `json:"queue"`
		Slides []slide.Slide `json:"slides"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, "default", initial.Queue)
	require.Len(t, initial.Slides, 1)

	saveSlide(t, ts, "alice-token", slidePayload("second", "default", 1))

	var update struct {
		Queue  string        `json:"queue"`
		Slides []slide.Slide `json:"slides"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&update))
	require.Len(t, update.Slides, 2)
}
