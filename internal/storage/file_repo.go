package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when no file record matches the lookup.
var ErrFileNotFound = errors.New("file record not found")

// FileRepo provides CRUD access to uploaded-file records.
type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

// Save records an uploaded file. A re-upload of the same filename for the same card
// replaces the existing record.
func (r *FileRepo) Save(ctx context.Context, cardID, filename, storedPath string, sizeBytes int64) (FileRecord, error) {
	rec := FileRecord{
		ID:         uuid.NewString(),
		CardID:     cardID,
		Filename:   filename,
		StoredPath: storedPath,
		SizeBytes:  sizeBytes,
		CreatedAt:  time.Now().UTC(),
	}

	const query = `
INSERT INTO files (id, card_id, filename, stored_path, size_bytes, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(card_id, filename) DO UPDATE SET
	stored_path = excluded.stored_path,
	size_bytes  = excluded.size_bytes,
	created_at  = excluded.created_at`

	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.CardID, rec.Filename, rec.StoredPath, rec.SizeBytes, rec.CreatedAt); err != nil {
		return FileRecord{}, fmt.Errorf("failed to save file record: %w", err)
	}
	return rec, nil
}

// ListByCard returns every file attached to a card, newest first.
func (r *FileRepo) ListByCard(ctx context.Context, cardID string) ([]FileRecord, error) {
	const query = `
SELECT id, card_id, filename, stored_path, size_bytes, created_at
FROM files WHERE card_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.ID, &rec.CardID, &rec.Filename, &rec.StoredPath, &rec.SizeBytes, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading file records: %w", err)
	}
	return records, nil
}

// Get returns one file record by card and filename.
func (r *FileRepo) Get(ctx context.Context, cardID, filename string) (FileRecord, error) {
	const query = `
SELECT id, card_id, filename, stored_path, size_bytes, created_at
FROM files WHERE card_id = ? AND filename = ?`

	var rec FileRecord
	err := r.db.QueryRowContext(ctx, query, cardID, filename).
		Scan(&rec.ID, &rec.CardID, &rec.Filename, &rec.StoredPath, &rec.SizeBytes, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FileRecord{}, ErrFileNotFound
	}
	if err != nil {
		return FileRecord{}, fmt.Errorf("failed to get file record: %w", err)
	}
	return rec, nil
}

// DeleteByCard removes every file record for a card and returns how many were deleted.
func (r *FileRepo) DeleteByCard(ctx context.Context, cardID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE card_id = ?`, cardID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete file records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted file records: %w", err)
	}
	return n, nil
}
