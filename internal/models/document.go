package models

import "time"

// Document is an uploaded attachment. Rows are never mutated after insert.
type Document struct {
	ID               string    `db:"id" json:"id"`
	RequestID        string    `db:"request_id" json:"request_id"`
	FilePath         string    `db:"file_path" json:"-"`
	OriginalFileName string    `db:"original_file_name" json:"original_file_name"`
	FileType         string    `db:"file_type" json:"file_type"`
	SizeBytes        int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// DocumentLink is a time-limited download URL.
type DocumentLink struct {
	DocumentID string    `json:"document_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
