package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// UploadRecord: одна строка журнала загрузок.
type UploadRecord struct {
	ID         int64     `json:"id"`
	ObjectKey  string    `json:"key"`
	Bucket     string    `json:"bucket"`
	FileURL    string    `json:"fileUrl"`
	Idea       string    `json:"idea"`
	SizeBytes  int       `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type UploadRepo struct{ DB *sql.DB }

func NewUploadRepo(db *sql.DB) *UploadRepo { return &UploadRepo{DB: db} }

const schemaSQL = `
create table if not exists slide_uploads (
  id          bigserial primary key,
  object_key  text not null unique,
  bucket      text not null default '',
  file_url    text not null default '',
  idea        text not null default '',
  size_bytes  integer not null default 0,
  uploaded_at timestamptz not null default now()
)`

// EnsureSchema создаёт таблицу, если её ещё нет. Идемпотентно.
func (r *UploadRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schemaSQL)
	return err
}

// Save пишет запись; повтор того же object_key игнорируется.
func (r *UploadRepo) Save(ctx context.Context, rec UploadRecord) error {
	if rec.ObjectKey == "" {
		return errors.New("upload record: empty object key")
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now().UTC()
	}
	const q = `
insert into slide_uploads (object_key, bucket, file_url, idea, size_bytes, uploaded_at)
values ($1,$2,$3,$4,$5,$6)
on conflict (object_key) do nothing`
	_, err := r.DB.ExecContext(ctx, q,
		rec.ObjectKey, rec.Bucket, rec.FileURL, rec.Idea, rec.SizeBytes, rec.UploadedAt)
	return err
}

// Recent: последние загрузки, новые сверху.
func (r *UploadRepo) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
select id, object_key, bucket, file_url, idea, size_bytes, uploaded_at
from slide_uploads
order by uploaded_at desc, id desc
limit $1`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]UploadRecord, 0, limit)
	for rows.Next() {
		var rec UploadRecord
		if err := rows.Scan(&rec.ID, &rec.ObjectKey, &rec.Bucket, &rec.FileURL,
			&rec.Idea, &rec.SizeBytes, &rec.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
