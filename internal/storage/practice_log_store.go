package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// PracticeLogEntry records one delivered solution so later sessions
// can see what was suggested and whether it was completed.
type PracticeLogEntry struct {
	ID           string
	SessionID    core.SessionID
	Pranayama    string
	Asana        string
	ActivityType string
	WisdomSource string
	TotalMinutes int
	DeliveredAt  time.Time
	CompletedAt  *time.Time
}

// PracticeLogStore handles practice log persistence
type PracticeLogStore struct {
	db *DB
}

// NewPracticeLogStore creates a new practice log store
func NewPracticeLogStore(db *DB) *PracticeLogStore {
	return &PracticeLogStore{db: db}
}

// Record logs a delivered solution.
func (s *PracticeLogStore) Record(entry *PracticeLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.DeliveredAt.IsZero() {
		entry.DeliveredAt = time.Now().UTC()
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO practice_log (
		    id, session_id, pranayama, asana, activity_type,
		    wisdom_source, total_minutes, delivered_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.SessionID, entry.Pranayama, entry.Asana,
		entry.ActivityType, entry.WisdomSource, entry.TotalMinutes,
		entry.DeliveredAt, entry.CompletedAt,
	)

	return err
}

// MarkCompleted stamps the entry as practiced.
func (s *PracticeLogStore) MarkCompleted(id string) error {
	res, err := s.db.conn.Exec(`
		UPDATE practice_log SET completed_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

// BySession returns the log entries for one session, newest first.
func (s *PracticeLogStore) BySession(id core.SessionID) ([]*PracticeLogEntry, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, session_id, pranayama, asana, activity_type,
		       wisdom_source, total_minutes, delivered_at, completed_at
		FROM practice_log
		WHERE session_id = ?
		ORDER BY delivered_at DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPracticeLog(rows)
}

// Recent returns the latest entries across sessions.
func (s *PracticeLogStore) Recent(limit int) ([]*PracticeLogEntry, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, session_id, pranayama, asana, activity_type,
		       wisdom_source, total_minutes, delivered_at, completed_at
		FROM practice_log
		ORDER BY delivered_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPracticeLog(rows)
}

func scanPracticeLog(rows *sql.Rows) ([]*PracticeLogEntry, error) {
	var entries []*PracticeLogEntry

	for rows.Next() {
		entry := &PracticeLogEntry{}
		var completedAt sql.NullTime

		err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.Pranayama, &entry.Asana,
			&entry.ActivityType, &entry.WisdomSource, &entry.TotalMinutes,
			&entry.DeliveredAt, &completedAt,
		)
		if err != nil {
			return nil, err
		}

		if completedAt.Valid {
			entry.CompletedAt = &completedAt.Time
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
