package models

import "time"

const (
	HistoryStatusCompleted = "completed"
	HistoryStatusFailed    = "failed"
)

// HistoryEntry is one recorded download outcome. Entries are advisory; the
// skip filter looks only at the filesystem, never at history.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	BatchID    string    `json:"batch_id"`
	Title      string    `json:"title"`
	OutputPath string    `json:"output_path"`
	Status     string    `json:"status"` // "completed" or "failed"
	Message    string    `json:"message"`
	Duration   float64   `json:"duration_seconds"`
	CreatedAt  time.Time `json:"created_at"`
}
