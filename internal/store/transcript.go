package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

type TranscriptSession struct {
	ID            string
	Profile       string
	Title         string
	CreatedAt     time.Time
	LastMessageAt time.Time
	MessageCount  int // as reported by the server
	Recorded      int // messages stored locally
	RecordedAt    time.Time
}

type TranscriptMessage struct {
	ID         string
	SessionID  string
	Role       string
	Content    string
	ToolName   string
	ToolStatus string
	IsError    bool
	Timestamp  time.Time
}

// UpsertSessions records the server's session list. Sessions missing from
// the list are kept; the transcript outlives server-side deletes.
func (s *Store) UpsertSessions(profile string, sessions []chat.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	now := toMillis(time.Now())
	for _, cs := range sessions {
		_, err := tx.Exec(`INSERT INTO chat_sessions (id, profile, title, created_at, last_message_at, message_count, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				last_message_at = excluded.last_message_at,
				message_count = excluded.message_count,
				recorded_at = excluded.recorded_at`,
			cs.ID, profile, cs.Title, toMillis(cs.CreatedAt), toMillis(cs.LastMessageAt), cs.MessageCount, now)
		if err != nil {
			return fmt.Errorf("upsert session %s: %w", cs.ID, err)
		}
	}
	return tx.Commit()
}

// AppendMessage stores m under sessionID unless a message with its id is
// already recorded. It reports whether a row was written.
func (s *Store) AppendMessage(sessionID string, m chat.Message) (bool, error) {
	return insertMessage(s.db, sessionID, m)
}

// ReplaceMessages makes a server replay authoritative: the session's
// recorded rows are swapped for msgs in one transaction. Local echoes
// recorded under client ids are dropped in favour of the server's copies.
func (s *Store) ReplaceMessages(sessionID string, msgs []chat.Message) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	added := 0
	for _, m := range msgs {
		ok, err := insertMessage(tx, sessionID, m)
		if err != nil {
			return 0, err
		}
		if ok {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertMessage(ex execer, sessionID string, m chat.Message) (bool, error) {
	res, err := ex.Exec(`INSERT OR IGNORE INTO chat_messages (id, session_id, role, content, tool_name, tool_status, is_error, ts, seq)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1 FROM chat_messages`,
		m.ID, sessionID, string(m.Role), m.Content, m.ToolName, m.ToolStatus, m.IsError, toMillis(m.Timestamp))
	if err != nil {
		return false, fmt.Errorf("append message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSessions returns recorded sessions, most recently active first.
func (s *Store) ListSessions() ([]*TranscriptSession, error) {
	rows, err := s.db.Query(`SELECT cs.id, cs.profile, cs.title, cs.created_at, cs.last_message_at,
			cs.message_count, cs.recorded_at,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.session_id = cs.id)
		FROM chat_sessions cs
		ORDER BY MAX(cs.last_message_at, cs.created_at) DESC, cs.id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var result []*TranscriptSession
	for rows.Next() {
		var ts TranscriptSession
		var created, last, recorded int64
		if err := rows.Scan(&ts.ID, &ts.Profile, &ts.Title, &created, &last, &ts.MessageCount, &recorded, &ts.Recorded); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ts.CreatedAt, ts.LastMessageAt, ts.RecordedAt = fromMillis(created), fromMillis(last), fromMillis(recorded)
		result = append(result, &ts)
	}
	return result, rows.Err()
}

// ListMessages returns the recorded messages of a session in display order.
func (s *Store) ListMessages(sessionID string) ([]*TranscriptMessage, error) {
	rows, err := s.db.Query(`SELECT id, session_id, role, content, tool_name, tool_status, is_error, ts
		FROM chat_messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var result []*TranscriptMessage
	for rows.Next() {
		var m TranscriptMessage
		var ts int64
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.ToolName, &m.ToolStatus, &m.IsError, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = fromMillis(ts)
		result = append(result, &m)
	}
	return result, rows.Err()
}
