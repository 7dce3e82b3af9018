package attachments

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

type Store interface {
	Insert(ctx context.Context, a *Attachment) error
	Get(ctx context.Context, id int64) (*Attachment, error)
	ListByTask(ctx context.Context, taskID int64) ([]Attachment, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, a *Attachment) error {
	if a.UploadDate.IsZero() {
		a.UploadDate = time.Now().UTC()
	}
	const q = `
		INSERT INTO attachments (task_id, original_file_name, stored_name, file_size, upload_date, uploader_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, q,
		a.TaskID, a.OriginalFileName, a.StoredName, a.FileSize, a.UploadDate, a.UploaderUserID,
	).Scan(&a.ID)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*Attachment, error) {
	const q = `
		SELECT id, task_id, original_file_name, stored_name, file_size, upload_date, uploader_user_id
		FROM attachments
		WHERE id = $1
	`
	a := &Attachment{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.TaskID, &a.OriginalFileName, &a.StoredName, &a.FileSize, &a.UploadDate, &a.UploaderUserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListByTask(ctx context.Context, taskID int64) ([]Attachment, error) {
	const q = `
		SELECT id, task_id, original_file_name, stored_name, file_size, upload_date, uploader_user_id
		FROM attachments
		WHERE task_id = $1
		ORDER BY upload_date DESC
	`
	rows, err := s.db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.OriginalFileName, &a.StoredName,
			&a.FileSize, &a.UploadDate, &a.UploaderUserID); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}
