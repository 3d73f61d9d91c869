package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Frame types for the agent server WebSocket protocol.
const (
	// Client → server
	TypeCreateSession = "create_session"
	TypeSwitchSession = "switch_session"
	TypeDeleteSession = "delete_session"
	TypeMessage       = "message"
	TypeShellCommand  = "shell_command"

	// Server → client
	TypeShellOutput     = "shell_output"
	TypeShellError      = "shell_error"
	TypeSessionsList    = "sessions_list"
	TypeSessionMessages = "session_messages"
	TypeUser            = "user" // echo of the client's own message
	TypeTool            = "tool"
	TypeAssistant       = "assistant"
	TypeResponse        = "response"
	TypeComplete        = "complete"
	TypeError           = "error"
)

// Tool statuses carried by tool frames.
const (
	ToolExecuting = "executing"
	ToolCompleted = "completed"
)

// Envelope wraps every WebSocket message with a type field for routing.
type Envelope struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Frame is the union of every inbound frame shape. Fields a given type does
// not carry are left zero.
type Frame struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	Timestamp Timestamp `json:"timestamp"`

	Content string `json:"content,omitempty"` // assistant, response, error

	Output string `json:"output,omitempty"` // shell_output
	Error  string `json:"error,omitempty"`  // shell_error

	Sessions         []SessionInfo `json:"sessions,omitempty"`           // sessions_list
	CurrentSessionID string        `json:"current_session_id,omitempty"` // sessions_list
	SessionID        string        `json:"session_id,omitempty"`         // session_messages
	Messages         []MessageInfo `json:"messages,omitempty"`           // session_messages

	ToolName      string          `json:"tool_name,omitempty"`
	Status        string          `json:"status,omitempty"`
	IsLongRunning bool            `json:"is_long_running,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

// ResultText returns the tool result as display text. String results are
// unquoted; any other JSON value is returned verbatim.
func (f Frame) ResultText() string {
	raw := bytes.TrimSpace(f.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// ParseFrame decodes one inbound text frame.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// SessionInfo is one entry of a sessions_list frame.
type SessionInfo struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     Timestamp `json:"created_at"`
	LastMessageAt Timestamp `json:"last_message_at"`
	MessageCount  int       `json:"message_count"`
}

// MessageInfo is one stored message replayed by a session_messages frame.
type MessageInfo struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"` // "user", "assistant", "tool"
	Content    string    `json:"content"`
	Timestamp  Timestamp `json:"timestamp"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolStatus string    `json:"tool_status,omitempty"`
}

// CreateSession asks the server for a fresh session.
type CreateSession struct {
	Type string `json:"type"`
}

// SwitchSession makes session_id the server's current session.
type SwitchSession struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// DeleteSession removes a session on the server.
type DeleteSession struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// UserMessage sends a chat message to the current session.
type UserMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ShellCommand runs a command in the server's shell.
type ShellCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// Timestamp accepts the timestamp encodings agent servers emit: ISO-8601 with
// or without a zone, or epoch milliseconds. Zone-less values are local time.
// Unrecognized values decode to the zero time so a bad timestamp never costs
// the whole frame.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] != '"' {
		t.Time = time.Time{}
		if ms, err := strconv.ParseFloat(string(data), 64); err == nil {
			t.Time = time.UnixMilli(int64(ms))
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Time = time.Time{}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if v, err := time.Parse(layout, s); err == nil {
				t.Time = v
				return nil
			}
			continue
		}
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
