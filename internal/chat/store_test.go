package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

func frame(t *testing.T, raw string) ws.Frame {
	t.Helper()
	f, err := ws.ParseFrame([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return f
}

func newTestStore() *Store {
	s := NewStore(DefaultLabels())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestToolFrameTwice(t *testing.T) {
	s := newTestStore()
	first := s.Apply(frame(t, `{"type":"tool","id":"t1","tool_name":"search","status":"executing"}`))
	second := s.Apply(frame(t, `{"type":"tool","id":"t1","tool_name":"search","status":"completed","result":"ok"}`))

	if first.Kind != ChangeMessage {
		t.Errorf("first kind = %v, want ChangeMessage", first.Kind)
	}
	if second.Kind != ChangeDuplicate {
		t.Errorf("second kind = %v, want ChangeDuplicate", second.Kind)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].ID != "t1" || msgs[0].Role != RoleTool {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs[0].ToolStatus != "executing" {
		t.Errorf("tool status = %q, want executing (repeat must not overwrite)", msgs[0].ToolStatus)
	}
}

func TestAssistantAlreadyListed(t *testing.T) {
	s := newTestStore()
	s.Apply(frame(t, `{"type":"session_messages","messages":[{"id":"a1","role":"assistant","content":"earlier"}]}`))
	// History load put a1 in the dedup set.
	ch := s.Apply(frame(t, `{"type":"assistant","id":"a1","content":"hello"}`))
	if ch.Kind != ChangeDuplicate {
		t.Errorf("kind = %v, want ChangeDuplicate", ch.Kind)
	}
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Content != "earlier" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAssistantListedButNotSeen(t *testing.T) {
	s := newTestStore()
	s.mu.Lock()
	s.messages = append(s.messages, Message{ID: "a1", Role: RoleAssistant, Content: "hello"})
	s.mu.Unlock()

	ch := s.Apply(frame(t, `{"type":"assistant","id":"a1","content":"hello"}`))
	if ch.Kind != ChangeDuplicate {
		t.Errorf("kind = %v, want ChangeDuplicate", ch.Kind)
	}
	if n := len(s.Messages()); n != 1 {
		t.Errorf("len = %d, want 1", n)
	}
}

func TestResponseAndMissingIDs(t *testing.T) {
	s := newTestStore()
	s.Apply(frame(t, `{"type":"response","content":"first"}`))
	s.Apply(frame(t, `{"type":"assistant","content":"second","timestamp":"2025-02-02T00:00:00Z"}`))
	s.Apply(frame(t, `{"type":"tool","tool_name":"x","status":"executing"}`))

	msgs := s.Messages()
	want := []string{"assistant-gen-1", "assistant-gen-2", "tool-gen-3"}
	if got := ids(msgs); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if !msgs[0].Timestamp.Equal(s.now()) {
		t.Errorf("missing timestamp should default to now, got %v", msgs[0].Timestamp)
	}
	if !msgs[1].Timestamp.Equal(time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", msgs[1].Timestamp)
	}
}

func TestToolContent(t *testing.T) {
	l := DefaultLabels()
	tests := []struct {
		name, status, result string
		long                 bool
		want                 string
	}{
		{"search", "executing", "", false, "🔧 Executing tool: **search**"},
		{"search", "executing", "", true, "⏳ Executing tool: **search** (long running)"},
		{"search", "completed", "{\"a\": 1}", false, "✅ Tool completed: **search**\n```json\n{\"a\": 1}\n```"},
		{"search", "completed", "", false, "✅ Tool completed: **search**"},
		{"search", "failed", "", false, "📊 Tool status update: **search** - failed"},
	}
	for _, tt := range tests {
		if got := l.ToolContent(tt.name, tt.status, tt.long, tt.result); got != tt.want {
			t.Errorf("ToolContent(%s,%s,%v) = %q, want %q", tt.name, tt.status, tt.long, got, tt.want)
		}
	}

	l.DisplayNames = map[string]string{"search": "Web Search"}
	if got := l.ToolContent("search", "completed", false, ""); got != "✅ Tool completed: **Web Search**" {
		t.Errorf("display name not applied: %q", got)
	}
}

func TestChineseLabels(t *testing.T) {
	l := LabelsFor("zh")
	if got := l.ToolContent("pysr", "executing", true, ""); got != "⏳ 正在执行工具: **pysr** (长时间运行)" {
		t.Errorf("got %q", got)
	}
	if got := l.ErrorContent("boom"); got != "❌ 错误: boom" {
		t.Errorf("got %q", got)
	}
}

func TestLabelsMerge(t *testing.T) {
	l := Labels{Error: "Oops"}.Merge(DefaultLabels())
	if l.Error != "Oops" || l.ToolCompleted != "Tool completed" {
		t.Errorf("merge = %+v", l)
	}
}

func TestShellFrames(t *testing.T) {
	s := newTestStore()
	s.Apply(frame(t, `{"type":"shell_output","output":"a.txt\n"}`))
	s.Apply(frame(t, `{"type":"shell_output"}`))
	s.Apply(frame(t, `{"type":"shell_error","error":"denied"}`))
	s.Apply(frame(t, `{"type":"shell_error"}`))

	log := s.Shell()
	want := []ShellEntry{
		{Kind: ShellOutput, Text: "a.txt\n"},
		{Kind: ShellOutput, Text: ""},
		{Kind: ShellError, Text: "denied"},
		{Kind: ShellError, Text: "Command execution error"},
	}
	if len(log) != len(want) {
		t.Fatalf("log = %+v", log)
	}
	for i := range want {
		if log[i].Kind != want[i].Kind || log[i].Text != want[i].Text {
			t.Errorf("entry %d = %+v, want %+v", i, log[i], want[i])
		}
	}
}

func TestDuplicateIDDropsShellAndSessionFrames(t *testing.T) {
	s := newTestStore()
	s.Apply(frame(t, `{"type":"assistant","id":"x","content":"hi"}`))
	if ch := s.Apply(frame(t, `{"type":"shell_output","id":"x","output":"ls"}`)); ch.Kind != ChangeDuplicate {
		t.Errorf("shell kind = %v", ch.Kind)
	}
	if ch := s.Apply(frame(t, `{"type":"sessions_list","id":"x","sessions":[{"id":"s1"}]}`)); ch.Kind != ChangeDuplicate {
		t.Errorf("sessions kind = %v", ch.Kind)
	}
	if len(s.Shell()) != 0 || len(s.Sessions()) != 0 {
		t.Error("duplicate frames must have no effect")
	}
}

func TestSessionsList(t *testing.T) {
	s := newTestStore()
	s.BeginCreate()
	ch := s.Apply(frame(t, `{"type":"sessions_list","current_session_id":"s2","sessions":[
		{"id":"s1","title":"one","message_count":3},
		{"id":"s2","title":"two"}]}`))
	if ch.Kind != ChangeSessions || len(ch.Sessions) != 2 || ch.SessionID != "s2" {
		t.Fatalf("change = %+v", ch)
	}
	if s.CurrentSessionID() != "s2" {
		t.Errorf("current = %q", s.CurrentSessionID())
	}
	if s.Creating() {
		t.Error("sessions_list must clear creating")
	}

	s.Apply(frame(t, `{"type":"sessions_list"}`))
	if got := s.Sessions(); len(got) != 0 {
		t.Errorf("sessions = %+v, want empty", got)
	}
}

func TestSessionMessagesReplaces(t *testing.T) {
	s := newTestStore()
	s.Apply(frame(t, `{"type":"assistant","id":"old","content":"x"}`))
	s.BeginCreate()

	ch := s.Apply(frame(t, `{"type":"session_messages","session_id":"s1","messages":[
		{"id":"m2","role":"user","content":"q","timestamp":"2025-01-01T00:00:00Z"},
		{"id":"m1","role":"assistant","content":"a"},
		{"id":"m3","role":"tool","content":"t","tool_name":"search","tool_status":"completed"}]}`))
	if ch.Kind != ChangeHistory || len(ch.Messages) != 3 {
		t.Fatalf("change = %+v", ch)
	}

	msgs := s.Messages()
	if got := strings.Join(ids(msgs), ","); got != "m2,m1,m3" {
		t.Errorf("order = %s", got)
	}
	if msgs[2].ToolName != "search" || msgs[2].Role != RoleTool {
		t.Errorf("tool message = %+v", msgs[2])
	}
	if s.Seen("old") {
		t.Error("dedup set must be reset on history load")
	}
	if s.SeenCount() != 3 || !s.Seen("m1") || !s.Seen("m2") || !s.Seen("m3") {
		t.Errorf("dedup set size = %d", s.SeenCount())
	}
	if s.Creating() {
		t.Error("session_messages must clear creating")
	}

	// The old id is usable again in the new view.
	if ch := s.Apply(frame(t, `{"type":"assistant","id":"old","content":"again"}`)); ch.Kind != ChangeMessage {
		t.Errorf("kind = %v, want ChangeMessage", ch.Kind)
	}
}

func TestCompleteAndError(t *testing.T) {
	s := newTestStore()
	s.SetLoading(true)
	s.Apply(frame(t, `{"type":"complete"}`))
	if s.Loading() {
		t.Error("complete must clear loading")
	}

	s.SetLoading(true)
	ch := s.Apply(frame(t, `{"type":"error","id":"e1","content":"agent crashed"}`))
	if s.Loading() {
		t.Error("error must clear loading")
	}
	if ch.Kind != ChangeMessage || ch.Message == nil {
		t.Fatalf("change = %+v", ch)
	}
	if ch.Message.Role != RoleAssistant || ch.Message.Content != "❌ Error: agent crashed" {
		t.Errorf("error message = %+v", ch.Message)
	}
	if ch.Message.ID != "error-gen-1" || !ch.Message.IsError {
		t.Errorf("error message = %+v", ch.Message)
	}

	ch = s.Apply(frame(t, `{"type":"assistant","id":"error-42","content":"all good"}`))
	if ch.Kind != ChangeMessage || ch.Message.IsError {
		t.Errorf("assistant with error- id = %+v", ch.Message)
	}
}

func TestUserEchoAndUnknownIgnored(t *testing.T) {
	s := newTestStore()
	if ch := s.Apply(frame(t, `{"type":"user","id":"u1","content":"me"}`)); ch.Kind != ChangeNone {
		t.Errorf("user kind = %v", ch.Kind)
	}
	if ch := s.Apply(frame(t, `{"type":"thinking","content":"hmm"}`)); ch.Kind != ChangeNone {
		t.Errorf("unknown kind = %v", ch.Kind)
	}
	if len(s.Messages()) != 0 {
		t.Error("ignored frames must not add messages")
	}
}

func TestBeginCreateOnce(t *testing.T) {
	s := newTestStore()
	s.AddUserMessage("hello")
	ch, ok := s.BeginCreate()
	if !ok || ch.Kind != ChangeCleared {
		t.Fatalf("BeginCreate = %+v, %v", ch, ok)
	}
	if len(s.Messages()) != 0 {
		t.Error("thread should be cleared")
	}
	if _, ok := s.BeginCreate(); ok {
		t.Error("second BeginCreate should report in-flight")
	}
	if _, ok := s.EndCreate(); !ok {
		t.Error("EndCreate should report it cleared the flag")
	}
	if _, ok := s.EndCreate(); ok {
		t.Error("EndCreate twice should be a no-op")
	}
}

func TestResultObjectEmbedded(t *testing.T) {
	s := newTestStore()
	raw, _ := json.Marshal(map[string]any{"type": "tool", "id": "t9", "tool_name": "calc", "status": "completed", "result": map[string]int{"x": 1}})
	s.Apply(frame(t, string(raw)))
	msgs := s.Messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Content, "```json\n{\"x\":1}\n```") {
		t.Errorf("messages = %+v", msgs)
	}
}
