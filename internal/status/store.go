// Package status tracks upload progress so clients can poll while files are
// extracted, chunked and indexed in the background.
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stages an upload moves through, in order.
const (
	StageUploading  = "uploading"
	StageExtracting = "extracting"
	StageChunking   = "chunking"
	StageIndexing   = "indexing"
	StageDone       = "done"
	StageFailed     = "failed"
)

// ErrNotFound is returned when no upload matches the given status id.
var ErrNotFound = errors.New("upload status not found")

// Upload is a snapshot of one upload's progress.
type Upload struct {
	ID            string    `json:"id"`
	CardID        string    `json:"card_id"`
	Filename      string    `json:"filename"`
	Stage         string    `json:"stage"`
	Progress      int       `json:"progress"`
	ChunksTotal   int       `json:"chunks_total"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is an in-memory registry of upload statuses. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	uploads map[string]*Upload
}

func NewStore() *Store {
	return &Store{uploads: make(map[string]*Upload)}
}

// Create registers a new upload in the uploading stage and returns its status id.
func (s *Store) Create(cardID, filename string) string {
	id := uuid.NewString()
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[id] = &Upload{
		ID:        id,
		CardID:    cardID,
		Filename:  filename,
		Stage:     StageUploading,
		Progress:  0,
		StartedAt: now,
		UpdatedAt: now,
	}
	return id
}

// Update moves an upload to the given stage and progress. Progress never moves
// backwards; stale updates are clamped to the current value.
func (s *Store) Update(id, stage string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[id]
	if !ok {
		return
	}
	up.Stage = stage
	if progress > up.Progress {
		up.Progress = min(progress, 100)
	}
	up.UpdatedAt = time.Now().UTC()
}

// SetChunks records chunking totals for an upload.
func (s *Store) SetChunks(id string, total, indexed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[id]
	if !ok {
		return
	}
	up.ChunksTotal = total
	up.ChunksIndexed = indexed
	up.UpdatedAt = time.Now().UTC()
}

// Complete marks an upload done at 100%.
func (s *Store) Complete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[id]
	if !ok {
		return
	}
	up.Stage = StageDone
	up.Progress = 100
	up.UpdatedAt = time.Now().UTC()
}

// Fail marks an upload failed with a message. Progress is left where it was.
func (s *Store) Fail(id string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	up, ok := s.uploads[id]
	if !ok {
		return
	}
	up.Stage = StageFailed
	up.Error = msg
	up.UpdatedAt = time.Now().UTC()
}

// Get returns a copy of the upload status for id.
func (s *Store) Get(id string) (Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	up, ok := s.uploads[id]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return *up, nil
}
