// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"time"

	"github.com/yoshiori/zen-downloader/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordBatch writes every task outcome of a batch in a single transaction.
func (s *Store) RecordBatch(batchID string, result *models.BatchResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO history (batch_id, title, output_path, status, message, duration_seconds, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, task := range result.Completed {
		_, err := stmt.Exec(batchID, task.Title, task.OutputPath,
			models.HistoryStatusCompleted, "", task.Duration, now)
		if err != nil {
			return err
		}
	}
	for _, failure := range result.Failures {
		_, err := stmt.Exec(batchID, failure.Task.Title, failure.Task.OutputPath,
			models.HistoryStatusFailed, failure.Err.Error(), failure.Task.Duration, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEntries returns the newest history rows first.
func (s *Store) RecentEntries(limit int) ([]*models.HistoryEntry, error) {
	rows, err := s.db.Query(`
        SELECT id, batch_id, title, output_path, status, message, duration_seconds, created_at
        FROM history ORDER BY created_at DESC, id DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var msg sql.NullString
		if err := rows.Scan(&entry.ID, &entry.BatchID, &entry.Title, &entry.OutputPath,
			&entry.Status, &msg, &entry.Duration, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Message = msg.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// CountByStatus returns how many history rows carry the given status.
func (s *Store) CountByStatus(status string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM history WHERE status = ?", status).Scan(&count)
	return count, err
}
