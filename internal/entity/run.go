package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractRun represents one processed document for data transfer between layers.
type ExtractRun struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	ContentHash  string     `json:"content_hash,omitempty"` // sha256, hex
	Status       string     `json:"status"`
	Pages        int        `json:"pages"`
	EmptyPages   int        `json:"empty_pages"`
	Records      int        `json:"records"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
