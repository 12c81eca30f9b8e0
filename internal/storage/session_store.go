package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/core"
)

// SessionStore persists sessions, their assessment snapshots, and the
// conversation transcript.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new session store
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a fresh session with its initial record.
func (s *SessionStore) Create(sess *core.Session, rec *assessment.Record) error {
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	confidence, _ := json.Marshal(rec.Confidence)

	_, err := s.db.conn.Exec(`
		INSERT INTO sessions (
		    id, user_name, ended, solution_delivered,
		    age_band, primary_emotion, life_situation, location,
		    time_available, meal_status, confidence,
		    stage, turns_in_stage, total_turns, tone,
		    created_at, updated_at
		) VALUES (?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID, sess.UserName, sess.SolutionDelivered,
		rec.AgeBand, rec.Emotion, rec.Situation, rec.Location,
		rec.Time, rec.Meal, string(confidence),
		rec.Stage, rec.TurnsInStage, rec.TotalTurns, rec.Tone,
		sess.CreatedAt, sess.UpdatedAt,
	)

	return err
}

// SaveSnapshot writes the current assessment state back to the row.
func (s *SessionStore) SaveSnapshot(sess *core.Session, rec *assessment.Record) error {
	sess.UpdatedAt = time.Now().UTC()

	confidence, _ := json.Marshal(rec.Confidence)

	_, err := s.db.conn.Exec(`
		UPDATE sessions SET
		    solution_delivered = ?,
		    age_band = ?, primary_emotion = ?, life_situation = ?, location = ?,
		    time_available = ?, meal_status = ?, confidence = ?,
		    stage = ?, turns_in_stage = ?, total_turns = ?, tone = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		sess.SolutionDelivered,
		rec.AgeBand, rec.Emotion, rec.Situation, rec.Location,
		rec.Time, rec.Meal, string(confidence),
		rec.Stage, rec.TurnsInStage, rec.TotalTurns, rec.Tone,
		sess.UpdatedAt,
		sess.ID,
	)

	return err
}

// Get returns a session and its assessment record.
func (s *SessionStore) Get(id core.SessionID) (*core.Session, *assessment.Record, error) {
	sess := &core.Session{}
	rec := &assessment.Record{SessionID: id}
	var confidence string
	var ended bool

	err := s.db.conn.QueryRow(`
		SELECT id, user_name, ended, solution_delivered,
		       age_band, primary_emotion, life_situation, location,
		       time_available, meal_status, confidence,
		       stage, turns_in_stage, total_turns, tone,
		       created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(
		&sess.ID, &sess.UserName, &ended, &sess.SolutionDelivered,
		&rec.AgeBand, &rec.Emotion, &rec.Situation, &rec.Location,
		&rec.Time, &rec.Meal, &confidence,
		&rec.Stage, &rec.TurnsInStage, &rec.TotalTurns, &rec.Tone,
		&sess.CreatedAt, &sess.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rec.Confidence = make(map[core.Field]float64)
	json.Unmarshal([]byte(confidence), &rec.Confidence)
	rec.CreatedAt = sess.CreatedAt
	rec.UpdatedAt = sess.UpdatedAt

	return sess, rec, nil
}

// End marks a session ended. Ended sessions stay queryable.
func (s *SessionStore) End(id core.SessionID) error {
	res, err := s.db.conn.Exec(`
		UPDATE sessions SET ended = 1, updated_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

// IsEnded reports whether the session has been ended.
func (s *SessionStore) IsEnded(id core.SessionID) (bool, error) {
	var ended bool
	err := s.db.conn.QueryRow(`SELECT ended FROM sessions WHERE id = ?`, id).Scan(&ended)
	if err == sql.ErrNoRows {
		return false, core.ErrSessionNotFound
	}
	return ended, err
}

// List returns recent sessions, newest first.
func (s *SessionStore) List(limit int) ([]*core.Session, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, user_name, solution_delivered, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*core.Session
	for rows.Next() {
		sess := &core.Session{}
		err := rows.Scan(&sess.ID, &sess.UserName, &sess.SolutionDelivered,
			&sess.CreatedAt, &sess.UpdatedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}

// AppendMessage stores one turn of conversation.
func (s *SessionStore) AppendMessage(msg *core.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.Timestamp)

	return err
}

// Messages returns the transcript in order.
func (s *SessionStore) Messages(id core.SessionID, limit int) ([]*core.Message, error) {
	rows, err := s.db.conn.Query(`
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC
		LIMIT ?
	`, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*core.Message
	for rows.Next() {
		msg := &core.Message{}
		err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.Timestamp)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Count returns total session count
func (s *SessionStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}
