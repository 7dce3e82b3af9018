package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/auth"
)

type fakeStore struct {
	nextID     int64
	tasks      map[int64]*Task
	lastFilter ListFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[int64]*Task{}}
}

func (f *fakeStore) Insert(_ context.Context, t *Task) error {
	f.nextID++
	t.ID = f.nextID
	if t.Status == "" {
		t.Status = StatusTodo
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) List(_ context.Context, filter ListFilter) ([]Task, error) {
	f.lastFilter = filter
	var result []Task
	for _, t := range f.tasks {
		if !filter.AllOwners && t.UserID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (f *fakeStore) Update(_ context.Context, t *Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) Stats(_ context.Context, filter ListFilter, _ time.Time) (*Stats, error) {
	f.lastFilter = filter
	return &Stats{ByCategory: []CategoryStats{}}, nil
}

func newTestRouter(store Store) http.Handler {
	h := &Handler{Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	r := chi.NewRouter()
	r.Get("/tasks", h.List)
	r.Post("/tasks", h.Create)
	r.Put("/tasks/{id}", h.Update)
	r.Delete("/tasks/{id}", h.Delete)
	r.Get("/stats", h.Stats)
	return r
}

func doRequest(t *testing.T, router http.Handler, id *auth.Identity, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

var (
	aliceID = auth.Identity{UserID: 2, Role: auth.RoleUser}
	adminID = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
)

func seedTask(t *testing.T, store *fakeStore, ownerID int64) *Task {
	t.Helper()
	task := &Task{Title: "seeded", Status: StatusTodo, DueDate: time.Now(), DueTime: "12:00", UserID: ownerID}
	if err := store.Insert(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestList_ScopesToCaller(t *testing.T) {
	store := newFakeStore()
	seedTask(t, store, aliceID.UserID)
	seedTask(t, store, 99)
	router := newTestRouter(store)

	rec := doRequest(t, router, &aliceID, http.MethodGet, "/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.lastFilter.AllOwners || store.lastFilter.OwnerID != aliceID.UserID {
		t.Fatalf("user list was not owner-scoped: %+v", store.lastFilter)
	}
	var list []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 1 || list[0].UserID != aliceID.UserID {
		t.Fatalf("expected only alice's task, got %+v", list)
	}
}

func TestList_AdminSeesAll(t *testing.T) {
	store := newFakeStore()
	seedTask(t, store, aliceID.UserID)
	seedTask(t, store, 99)
	router := newTestRouter(store)

	rec := doRequest(t, router, &adminID, http.MethodGet, "/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.lastFilter.AllOwners {
		t.Fatalf("admin list should not be owner-scoped: %+v", store.lastFilter)
	}
	var list []Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected both tasks, got %d", len(list))
	}
}

func TestList_EmptyIsNotAnError(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doRequest(t, router, &aliceID, http.MethodGet, "/tasks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestList_BadStatusFilter(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doRequest(t, router, &aliceID, http.MethodGet, "/tasks?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestList_NoIdentity(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec := doRequest(t, router, nil, http.MethodGet, "/tasks", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreate(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	body := map[string]interface{}{
		"title":    "write report",
		"category": "work",
		"dueDate":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
	rec := doRequest(t, router, &aliceID, http.MethodPost, "/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.UserID != aliceID.UserID {
		t.Fatalf("task owner should be the caller, got %d", created.UserID)
	}
	if created.Status != StatusTodo {
		t.Fatalf("new tasks must start as todo, got %q", created.Status)
	}
	if created.DueTime != "12:00" {
		t.Fatalf("missing dueTime should default to 12:00, got %q", created.DueTime)
	}
}

func TestCreate_Invalid(t *testing.T) {
	router := newTestRouter(newFakeStore())

	cases := map[string]map[string]interface{}{
		"missing title":   {"dueDate": time.Now().Format(time.RFC3339)},
		"missing dueDate": {"title": "x"},
		"bad dueTime":     {"title": "x", "dueDate": time.Now().Format(time.RFC3339), "dueTime": "25:99"},
	}
	for name, body := range cases {
		rec := doRequest(t, router, &aliceID, http.MethodPost, "/tasks", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestUpdate_OwnershipRules(t *testing.T) {
	store := newFakeStore()
	mine := seedTask(t, store, aliceID.UserID)
	theirs := seedTask(t, store, 99)
	router := newTestRouter(store)

	body := map[string]interface{}{"status": "completed"}

	rec := doRequest(t, router, &aliceID, http.MethodPut, "/tasks/0", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing task: expected 404, got %d", rec.Code)
	}
	rec = doRequest(t, router, &aliceID, http.MethodPut, taskPath(theirs.ID), body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("someone else's task: expected 403, got %d", rec.Code)
	}
	rec = doRequest(t, router, &aliceID, http.MethodPut, taskPath(mine.ID), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("own task: expected 200, got %d", rec.Code)
	}
	var updated Task
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("status not updated: %q", updated.Status)
	}
	if updated.LastModified == nil {
		t.Fatalf("update must set lastModified")
	}

	// Admin may update anyone's task.
	rec = doRequest(t, router, &adminID, http.MethodPut, taskPath(theirs.ID), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin on someone else's task: expected 200, got %d", rec.Code)
	}
}

func TestDelete_OwnershipRules(t *testing.T) {
	store := newFakeStore()
	mine := seedTask(t, store, aliceID.UserID)
	theirs := seedTask(t, store, 99)
	router := newTestRouter(store)

	rec := doRequest(t, router, &aliceID, http.MethodDelete, taskPath(theirs.ID), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("someone else's task: expected 403, got %d", rec.Code)
	}
	rec = doRequest(t, router, &aliceID, http.MethodDelete, taskPath(mine.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("own task: expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, router, &aliceID, http.MethodDelete, taskPath(mine.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("already deleted: expected 404, got %d", rec.Code)
	}
}

func TestStats_Scoping(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	rec := doRequest(t, router, &aliceID, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.lastFilter.AllOwners || store.lastFilter.OwnerID != aliceID.UserID {
		t.Fatalf("user stats were not owner-scoped: %+v", store.lastFilter)
	}

	rec = doRequest(t, router, &adminID, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.lastFilter.AllOwners {
		t.Fatalf("admin stats should cover all owners: %+v", store.lastFilter)
	}
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
