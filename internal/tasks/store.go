package tasks

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")

type Store interface {
	Insert(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, f ListFilter) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, f ListFilter, today time.Time) (*Stats, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, t *Task) error {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO tasks (title, description, category, status, due_date, due_time, created_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, q,
		t.Title, t.Description, t.Category, string(t.Status),
		t.DueDate, t.DueTime, t.CreatedAt, t.UserID,
	).Scan(&t.ID)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Task, error) {
	const q = `
		SELECT id, title, description, category, status, due_date, due_time, created_at, last_modified, user_id
		FROM tasks
		WHERE id = $1
	`
	t := &Task{}
	var lastModified sql.NullTime
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Status,
		&t.DueDate, &t.DueTime, &t.CreatedAt, &lastModified, &t.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if lastModified.Valid {
		t.LastModified = &lastModified.Time
	}
	return t, nil
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]Task, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if !f.AllOwners {
		clauses = append(clauses, "user_id = $"+strconv.Itoa(argIdx))
		args = append(args, f.OwnerID)
		argIdx++
	}
	if f.Status != "" {
		clauses = append(clauses, "status = $"+strconv.Itoa(argIdx))
		args = append(args, string(f.Status))
		argIdx++
	}

	query := `SELECT id, title, description, category, status, due_date, due_time, created_at, last_modified, user_id
		FROM tasks WHERE ` + strings.Join(clauses, " AND ") + " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		var t Task
		var lastModified sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Status,
			&t.DueDate, &t.DueTime, &t.CreatedAt, &lastModified, &t.UserID); err != nil {
			return nil, err
		}
		if lastModified.Valid {
			t.LastModified = &lastModified.Time
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, t *Task) error {
	const q = `
		UPDATE tasks
		SET title = $1, description = $2, category = $3, status = $4,
		    due_date = $5, due_time = $6, last_modified = $7
		WHERE id = $8
	`
	res, err := s.db.ExecContext(ctx, q,
		t.Title, t.Description, t.Category, string(t.Status),
		t.DueDate, t.DueTime, t.LastModified, t.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Stats aggregates per-category counts in SQL and derives the overall
// totals from them. Overdue means not completed with a due date before
// today.
func (s *PostgresStore) Stats(ctx context.Context, f ListFilter, today time.Time) (*Stats, error) {
	query := `
		SELECT category,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3),
		       COUNT(*) FILTER (WHERE status <> $1 AND due_date < $4)
		FROM tasks
	`
	args := []interface{}{string(StatusCompleted), string(StatusTodo), string(StatusInProgress), today}
	if !f.AllOwners {
		query += " WHERE user_id = $5"
		args = append(args, f.OwnerID)
	}
	query += " GROUP BY category ORDER BY category"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{ByCategory: []CategoryStats{}}
	for rows.Next() {
		var c CategoryStats
		if err := rows.Scan(&c.Category, &c.Total, &c.Completed, &c.Pending, &c.InProgress, &c.Overdue); err != nil {
			return nil, err
		}
		stats.ByCategory = append(stats.ByCategory, c)
		stats.Total += c.Total
		stats.Done += c.Completed
		stats.Pending += c.Pending
		stats.InProgress += c.InProgress
	}
	return stats, rows.Err()
}
