package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/memento/pkg/adapters/httpapi"
	"github.com/aretw0/memento/pkg/adapters/local"
	"github.com/aretw0/memento/pkg/adapters/memory"
	"github.com/aretw0/memento/pkg/core"
	"github.com/aretw0/memento/pkg/notes"
	"github.com/aretw0/memento/pkg/reminder"
	"github.com/aretw0/memento/pkg/router"
)

var now = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	notes    *notes.Repository
	notifier *local.Notifier
	router   *router.Router
	server   *httptest.Server
}

func setup(t *testing.T, mutate func(*httpapi.Config)) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	store := memory.NewStore()
	repo := notes.NewRepository(store, notes.WithClock(clock))
	notifier := local.NewNotifier(store, local.WithClock(clock))
	rt := router.New(store)

	cfg := httpapi.Config{
		Notes:     repo,
		Reminders: reminder.NewScheduler(notifier, repo, reminder.WithClock(clock)),
		Notifier:  notifier,
		Router:    rt,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv := httptest.NewServer(httpapi.NewRouter(cfg))
	t.Cleanup(srv.Close)
	return &fixture{store: store, notes: repo, notifier: notifier, router: rt, server: srv}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := setup(t, nil)
	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNotes_CreateListGet(t *testing.T) {
	f := setup(t, nil)

	resp := f.do(t, http.MethodPost, "/notes", `{"title":"Grocery List","content":"milk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.Note](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, now.UnixMilli(), created.Timestamp)

	resp = f.do(t, http.MethodPost, "/notes", `{"title":"Work","content":"ship"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/notes?q=MILK", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]core.Note](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	resp = f.do(t, http.MethodGet, "/notes/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Grocery List", decode[core.Note](t, resp).Title)

	resp = f.do(t, http.MethodGet, "/notes/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotes_CreateRejectsInvalidDraft(t *testing.T) {
	f := setup(t, nil)

	resp := f.do(t, http.MethodPost, "/notes", `{"title":"only a title"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/notes", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, f.notes.LoadAll(context.Background()))
}

func TestNotes_UpdateKeepsOmittedFields(t *testing.T) {
	f := setup(t, nil)
	n, err := f.notes.Upsert(context.Background(), core.Note{Title: "a", Content: "b"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodPut, "/notes/"+n.ID, `{"title":"renamed","pinned":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[core.Note](t, resp)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "b", updated.Content)
	assert.True(t, updated.Pinned)

	resp = f.do(t, http.MethodPut, "/notes/"+n.ID, `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotes_PinAndDelete(t *testing.T) {
	f := setup(t, nil)
	n, err := f.notes.Upsert(context.Background(), core.Note{Title: "a", Content: "b"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/notes/"+n.ID+"/pin", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[core.Note](t, resp).Pinned)

	resp = f.do(t, http.MethodPost, "/notes/missing/pin", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/notes/"+n.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := f.notes.FindByID(context.Background(), n.ID)
	assert.False(t, ok)
}

func TestNotes_Reminder(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	n, err := f.notes.Upsert(ctx, core.Note{Title: "Call mom", Content: "Sunday"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodPut, "/notes/"+n.ID+"/reminder", `{"at":"2029-12-31T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "past reminders are rejected")

	resp = f.do(t, http.MethodPut, "/notes/"+n.ID+"/reminder", `{"at":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/notes/"+n.ID+"/reminder", `{"at":"2030-01-02T09:00:00Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	withReminder := decode[core.Note](t, resp)
	require.NotNil(t, withReminder.ReminderDate)
	assert.Equal(t, "2030-01-02T09:00:00.000Z", *withReminder.ReminderDate)

	pending, err := f.notifier.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, n.ID, pending[0].Notification.NoteID())

	resp = f.do(t, http.MethodDelete, "/notes/"+n.ID+"/reminder", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[core.Note](t, resp).ReminderDate)

	pending, err = f.notifier.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNotes_Export(t *testing.T) {
	f := setup(t, nil)
	n, err := f.notes.Upsert(context.Background(), core.Note{Title: "My/Note!?", Content: "# Heading"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/notes/"+n.ID+"/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "My_Note__.txt")

	resp = f.do(t, http.MethodGet, "/notes/"+n.ID+"/export?format=html", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	resp = f.do(t, http.MethodGet, "/notes/"+n.ID+"/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotifications_Background(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	resp := f.do(t, http.MethodPost, "/notifications/background", `{"type":"press","payload":{"note_id":"n1"}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	id, ok := f.router.Startup(ctx, nil)
	require.True(t, ok)
	assert.Equal(t, "n1", id)
}

func TestAuth_RequiresToken(t *testing.T) {
	tokens := httpapi.NewTokens("s3cret")
	f := setup(t, func(c *httpapi.Config) { c.Tokens = tokens })

	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays public")

	resp = f.do(t, http.MethodGet, "/notes", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tokens.Sign("editor-plugin", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/notes", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestTokens(t *testing.T) {
	tokens := httpapi.NewTokens("s3cret")

	token, err := tokens.Sign("cli", 0)
	require.NoError(t, err)
	subject, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", subject)

	_, err = httpapi.NewTokens("other").Verify(token)
	assert.Error(t, err, "wrong secret")

	_, err = tokens.Sign("", 0)
	assert.Error(t, err)

	forever, err := tokens.Sign("cli", -time.Minute)
	require.NoError(t, err)
	_, err = tokens.Verify(forever)
	assert.NoError(t, err, "non-positive ttl means no expiry")
}

func TestCORS(t *testing.T) {
	f := setup(t, func(c *httpapi.Config) { c.AllowedOrigins = []string{"http://localhost:5173"} })

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/notes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	f := setup(t, func(c *httpapi.Config) {
		c.Status = func() map[string]any { return map[string]any{"adapter": "memory"} }
	})
	resp := f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "memory", decode[map[string]any](t, resp)["adapter"])
}
