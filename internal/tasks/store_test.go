package tasks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresStore(db), mock, func() { db.Close() }
}

func TestPostgresStore_InsertDefaults(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	task := &Task{Title: "write report", DueDate: time.Now(), DueTime: "12:00", UserID: 1}
	if err := store.Insert(context.Background(), task); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if task.ID != 5 {
		t.Fatalf("expected id 5, got %d", task.ID)
	}
	if task.Status != StatusTodo {
		t.Fatalf("Insert should default status to todo, got %q", task.Status)
	}
	if task.CreatedAt.IsZero() {
		t.Fatalf("Insert should set CreatedAt")
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, title").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Get(context.Background(), 99); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresStore_ListScoping(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	cols := []string{"id", "title", "description", "category", "status", "due_date", "due_time", "created_at", "last_modified", "user_id"}
	now := time.Now().UTC()

	// Owner-scoped list carries the user_id predicate.
	mock.ExpectQuery(regexp.QuoteMeta("user_id = $1")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "t1", "", "work", "todo", now, "12:00", now, nil, int64(2)))

	list, err := store.List(context.Background(), ListFilter{OwnerID: 2})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].UserID != 2 {
		t.Fatalf("unexpected list result: %+v", list)
	}

	// Admin-scoped list has no owner predicate but may filter status.
	mock.ExpectQuery(regexp.QuoteMeta("status = $1")).
		WithArgs("completed").
		WillReturnRows(sqlmock.NewRows(cols))

	if _, err := store.List(context.Background(), ListFilter{AllOwners: true, Status: StatusCompleted}); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresStore_UpdateMissingRow(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("UPDATE tasks").
		WillReturnResult(sqlmock.NewResult(0, 0))

	task := &Task{ID: 404, Title: "x", Status: StatusTodo, DueDate: time.Now(), DueTime: "12:00"}
	if err := store.Update(context.Background(), task); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresStore_DeleteMissingRow(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM tasks").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Delete(context.Background(), 404); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestPostgresStore_Stats(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	rows := sqlmock.NewRows([]string{"category", "total", "completed", "pending", "in_progress", "overdue"}).
		AddRow("home", 2, 1, 1, 0, 1).
		AddRow("work", 3, 1, 1, 1, 0)
	mock.ExpectQuery("GROUP BY category").
		WillReturnRows(rows)

	stats, err := store.Stats(context.Background(), ListFilter{OwnerID: 2}, time.Now())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Total != 5 || stats.Done != 2 || stats.Pending != 2 || stats.InProgress != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if len(stats.ByCategory) != 2 || stats.ByCategory[0].Overdue != 1 {
		t.Fatalf("unexpected category stats: %+v", stats.ByCategory)
	}
}
