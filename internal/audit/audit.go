// Package audit provides a hash-chained, append-only event log.
// Every entry carries the hash of the previous entry, so any edit or
// deletion inside the chain is detectable after the fact.
package audit

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/storage"
)

// Event types recorded during a session's life.
const (
	EventSessionStarted      = "session.started"
	EventSessionEnded        = "session.ended"
	EventTurnProcessed       = "turn.processed"
	EventStageAdvanced       = "stage.advanced"
	EventAssessmentCompleted = "assessment.completed"
	EventSolutionDelivered   = "solution.delivered"
	EventCalendarScheduled   = "calendar.scheduled"
)

const genesisHash = "GENESIS:0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one immutable record in the chain.
type Entry struct {
	Seq       int64          `json:"seq"`
	EventType string         `json:"event_type"`
	SessionID core.SessionID `json:"session_id"`
	Payload   string         `json:"payload"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
	CreatedAt time.Time      `json:"created_at"`
}

// Log appends entries to the audit_log table. Append is the only
// write path; there is no update or delete.
type Log struct {
	db *storage.DB
	mu sync.Mutex
}

func NewLog(db *storage.DB) *Log {
	return &Log{db: db}
}

// Append records an event, chaining it to the last entry. The payload
// is serialized to JSON; nil payloads are stored as an empty object.
func (l *Log) Append(eventType string, sessionID core.SessionID, payload any) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	payloadJSON := "{}"
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal audit payload: %w", err)
		}
		payloadJSON = string(data)
	}

	prevHash, err := l.lastHash()
	if err != nil {
		return nil, fmt.Errorf("get last hash: %w", err)
	}

	entry := &Entry{
		EventType: eventType,
		SessionID: sessionID,
		Payload:   payloadJSON,
		PrevHash:  prevHash,
		CreatedAt: time.Now().UTC(),
	}
	entry.Hash = computeHash(entry)

	result, err := l.db.Conn().Exec(`
		INSERT INTO audit_log (event_type, session_id, payload, prev_hash, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.EventType, string(entry.SessionID), entry.Payload, entry.PrevHash, entry.Hash, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	entry.Seq, _ = result.LastInsertId()
	return entry, nil
}

func (l *Log) lastHash() (string, error) {
	var hash string
	err := l.db.Conn().QueryRow(`
		SELECT hash FROM audit_log ORDER BY seq DESC LIMIT 1
	`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return genesisHash, nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// computeHash hashes the canonical JSON of an entry, excluding the
// hash itself and the database-assigned sequence number.
func computeHash(entry *Entry) string {
	canonical := struct {
		EventType string    `json:"event_type"`
		SessionID string    `json:"session_id"`
		Payload   string    `json:"payload"`
		PrevHash  string    `json:"prev_hash"`
		CreatedAt time.Time `json:"created_at"`
	}{
		EventType: entry.EventType,
		SessionID: string(entry.SessionID),
		Payload:   entry.Payload,
		PrevHash:  entry.PrevHash,
		CreatedAt: entry.CreatedAt,
	}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChain walks the whole chain in order and re-derives every
// hash. Returns nil when intact, or a core.ErrChainBroken wrapping
// error naming the first bad link.
func (l *Log) VerifyChain() error {
	rows, err := l.db.Conn().Query(`
		SELECT seq, event_type, session_id, payload, prev_hash, hash, created_at
		FROM audit_log ORDER BY seq ASC
	`)
	if err != nil {
		return fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	expectedPrev := genesisHash
	for rows.Next() {
		var entry Entry
		var sessionID string
		if err := rows.Scan(&entry.Seq, &entry.EventType, &sessionID,
			&entry.Payload, &entry.PrevHash, &entry.Hash, &entry.CreatedAt); err != nil {
			return fmt.Errorf("scan audit entry: %w", err)
		}
		entry.SessionID = core.SessionID(sessionID)

		if entry.PrevHash != expectedPrev {
			return fmt.Errorf("%w: entry %d has broken link", core.ErrChainBroken, entry.Seq)
		}
		if computeHash(&entry) != entry.Hash {
			return fmt.Errorf("%w: entry %d has a forged hash", core.ErrChainBroken, entry.Seq)
		}
		expectedPrev = entry.Hash
	}

	return rows.Err()
}

// BySession returns all entries for one session, oldest first.
func (l *Log) BySession(id core.SessionID) ([]*Entry, error) {
	return l.query(`
		SELECT seq, event_type, session_id, payload, prev_hash, hash, created_at
		FROM audit_log WHERE session_id = ? ORDER BY seq ASC
	`, string(id))
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(limit int) ([]*Entry, error) {
	return l.query(`
		SELECT seq, event_type, session_id, payload, prev_hash, hash, created_at
		FROM audit_log ORDER BY seq DESC LIMIT ?
	`, limit)
}

// Count returns the total number of entries.
func (l *Log) Count() (int, error) {
	var count int
	err := l.db.Conn().QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&count)
	return count, err
}

func (l *Log) query(q string, args ...any) ([]*Entry, error) {
	rows, err := l.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var sessionID string
		if err := rows.Scan(&entry.Seq, &entry.EventType, &sessionID,
			&entry.Payload, &entry.PrevHash, &entry.Hash, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.SessionID = core.SessionID(sessionID)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
