package storage

import "time"

// FileRecord is one uploaded file attached to a card.
type FileRecord struct {
	ID         string    `json:"id"`
	CardID     string    `json:"card_id"`
	Filename   string    `json:"filename"`
	StoredPath string    `json:"-"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}
