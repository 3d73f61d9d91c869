package store

import (
	"fmt"
	"time"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

type ShellLine struct {
	ID        int64
	SessionID string
	Kind      string
	Text      string
	Timestamp time.Time
}

func (s *Store) AppendShell(sessionID string, e chat.ShellEntry) error {
	_, err := s.db.Exec("INSERT INTO shell_log (session_id, kind, text, ts) VALUES (?, ?, ?, ?)",
		sessionID, string(e.Kind), e.Text, toMillis(e.Timestamp))
	if err != nil {
		return fmt.Errorf("append shell: %w", err)
	}
	return nil
}

// ListShell returns the last limit shell lines in order; limit <= 0 means all.
func (s *Store) ListShell(limit int) ([]*ShellLine, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, session_id, kind, text, ts FROM (
			SELECT * FROM shell_log ORDER BY id DESC LIMIT ?
		) ORDER BY id`, limit)
	if err != nil {
		return nil, fmt.Errorf("list shell: %w", err)
	}
	defer rows.Close()
	var lines []*ShellLine
	for rows.Next() {
		l := &ShellLine{}
		var ts int64
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Kind, &l.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan shell line: %w", err)
		}
		l.Timestamp = fromMillis(ts)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
