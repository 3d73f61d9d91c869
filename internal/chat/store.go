package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation thread.
type Message struct {
	ID         string
	Role       Role
	Content    string // markdown
	Timestamp  time.Time
	ToolName   string
	ToolStatus string
	Streaming  bool
	IsError    bool // synthesized from an error frame
}

// Session mirrors one entry of the server's session list.
type Session struct {
	ID            string
	Title         string
	CreatedAt     time.Time
	LastMessageAt time.Time
	MessageCount  int
}

type ShellKind string

const (
	ShellCommand ShellKind = "command"
	ShellOutput  ShellKind = "output"
	ShellError   ShellKind = "error"
)

// ShellEntry is one line of the remote shell log.
type ShellEntry struct {
	Kind      ShellKind
	Text      string
	Timestamp time.Time
}

// ChangeKind says what a store mutation did.
type ChangeKind int

const (
	ChangeNone         ChangeKind = iota // frame ignored
	ChangeDuplicate                      // frame id already applied
	ChangeMessage                        // Message appended
	ChangeHistory                        // message list replaced (Messages holds it)
	ChangeCleared                        // message list emptied for a new session
	ChangeSessions                       // session list / current id replaced
	ChangeShell                          // Shell appended
	ChangeShellCleared                   // shell log emptied
	ChangeLoading                        // loading flag changed
	ChangeCreating                       // creating flag changed
	ChangeStatus                         // connection status changed
)

var changeNames = [...]string{"none", "duplicate", "message", "history", "cleared", "sessions", "shell", "shell_cleared", "loading", "creating", "status"}

func (k ChangeKind) String() string {
	if int(k) >= 0 && int(k) < len(changeNames) {
		return changeNames[k]
	}
	return "unknown"
}

// Change describes one store mutation so renderers and recorders can react
// without diffing snapshots.
type Change struct {
	Kind      ChangeKind
	SessionID string // current session when the change happened

	Message  *Message
	Messages []Message
	Sessions []Session
	Shell    *ShellEntry
	Status   ws.Status
	Err      error
}

// Store is the in-memory view model behind a chat screen: the ordered
// message list, the mirrored session list, the dedup set and the shell log.
// It persists nothing. All methods are safe for concurrent use.
type Store struct {
	labels Labels
	now    func() time.Time
	newID  func() string

	mu        sync.Mutex
	messages  []Message
	seen      map[string]struct{}
	sessions  []Session
	currentID string
	shell     []ShellEntry
	loading   bool
	creating  bool
}

// NewStore returns an empty store that renders synthesized text with labels.
func NewStore(labels Labels) *Store {
	return &Store{
		labels: labels.Merge(DefaultLabels()),
		now:    time.Now,
		newID:  uuid.NewString,
		seen:   make(map[string]struct{}),
	}
}

// Apply folds one inbound frame into the store. A frame whose id was already
// applied is dropped before any type-specific handling.
func (s *Store) Apply(f ws.Frame) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID != "" {
		if _, ok := s.seen[f.ID]; ok {
			return s.change(ChangeDuplicate)
		}
		s.seen[f.ID] = struct{}{}
	}

	switch f.Type {
	case ws.TypeShellOutput:
		return s.appendShellLocked(ShellOutput, f.Output)

	case ws.TypeShellError:
		text := f.Error
		if text == "" {
			text = s.labels.ShellError
		}
		return s.appendShellLocked(ShellError, text)

	case ws.TypeSessionsList:
		s.sessions = make([]Session, 0, len(f.Sessions))
		for _, si := range f.Sessions {
			s.sessions = append(s.sessions, Session{
				ID:            si.ID,
				Title:         si.Title,
				CreatedAt:     si.CreatedAt.Time,
				LastMessageAt: si.LastMessageAt.Time,
				MessageCount:  si.MessageCount,
			})
		}
		s.currentID = f.CurrentSessionID
		s.creating = false
		ch := s.change(ChangeSessions)
		ch.Sessions = append([]Session(nil), s.sessions...)
		return ch

	case ws.TypeSessionMessages:
		s.messages = make([]Message, 0, len(f.Messages))
		s.seen = make(map[string]struct{}, len(f.Messages))
		for _, mi := range f.Messages {
			s.messages = append(s.messages, Message{
				ID:         mi.ID,
				Role:       Role(mi.Role),
				Content:    mi.Content,
				Timestamp:  mi.Timestamp.Time,
				ToolName:   mi.ToolName,
				ToolStatus: mi.ToolStatus,
			})
			if mi.ID != "" {
				s.seen[mi.ID] = struct{}{}
			}
		}
		s.creating = false
		ch := s.change(ChangeHistory)
		if f.SessionID != "" {
			ch.SessionID = f.SessionID
		}
		ch.Messages = append([]Message(nil), s.messages...)
		return ch

	case ws.TypeUser:
		return s.change(ChangeNone)

	case ws.TypeTool:
		id := f.ID
		if id == "" {
			id = "tool-" + s.newID()
		}
		return s.appendUniqueLocked(Message{
			ID:         id,
			Role:       RoleTool,
			Content:    s.labels.ToolContent(f.ToolName, f.Status, f.IsLongRunning, f.ResultText()),
			Timestamp:  s.stamp(f.Timestamp),
			ToolName:   f.ToolName,
			ToolStatus: f.Status,
		})

	case ws.TypeAssistant, ws.TypeResponse:
		id := f.ID
		if id == "" {
			id = "assistant-" + s.newID()
		}
		return s.appendUniqueLocked(Message{
			ID:        id,
			Role:      RoleAssistant,
			Content:   f.Content,
			Timestamp: s.stamp(f.Timestamp),
		})

	case ws.TypeComplete:
		s.loading = false
		return s.change(ChangeLoading)

	case ws.TypeError:
		m := Message{
			ID:        "error-" + s.newID(),
			Role:      RoleAssistant,
			Content:   s.labels.ErrorContent(f.Content),
			Timestamp: s.now(),
			IsError:   true,
		}
		s.messages = append(s.messages, m)
		s.loading = false
		ch := s.change(ChangeMessage)
		ch.Message = &m
		return ch

	default:
		return s.change(ChangeNone)
	}
}

func (s *Store) change(kind ChangeKind) Change {
	return Change{Kind: kind, SessionID: s.currentID}
}

func (s *Store) stamp(ts ws.Timestamp) time.Time {
	if ts.IsZero() {
		return s.now()
	}
	return ts.Time
}

// appendUniqueLocked appends m unless the list already holds its id. The
// dedup set usually catches repeats first; this covers ids that reached the
// list without passing through it (history loads, generated ids).
func (s *Store) appendUniqueLocked(m Message) Change {
	for i := range s.messages {
		if s.messages[i].ID == m.ID {
			return s.change(ChangeDuplicate)
		}
	}
	s.messages = append(s.messages, m)
	ch := s.change(ChangeMessage)
	ch.Message = &m
	return ch
}

func (s *Store) appendShellLocked(kind ShellKind, text string) Change {
	e := ShellEntry{Kind: kind, Text: text, Timestamp: s.now()}
	s.shell = append(s.shell, e)
	ch := s.change(ChangeShell)
	ch.Shell = &e
	return ch
}

// AddUserMessage appends the user's own message before the server sees it.
func (s *Store) AddUserMessage(content string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendUniqueLocked(Message{
		ID:        s.newID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: s.now(),
	})
}

// AddShellEntry appends a client-side entry to the shell log.
func (s *Store) AddShellEntry(kind ShellKind, text string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendShellLocked(kind, text)
}

// ClearShell empties the shell log.
func (s *Store) ClearShell() Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shell = nil
	return s.change(ChangeShellCleared)
}

// SetLoading records whether a response is outstanding.
func (s *Store) SetLoading(v bool) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	return s.change(ChangeLoading)
}

// BeginCreate clears the thread and marks a create_session in flight. It
// reports false, changing nothing, when one is already in flight.
func (s *Store) BeginCreate() (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creating {
		return s.change(ChangeNone), false
	}
	s.creating = true
	s.messages = nil
	return s.change(ChangeCleared), true
}

// EndCreate clears the creating flag and reports whether it was set.
func (s *Store) EndCreate() (Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.creating {
		return s.change(ChangeNone), false
	}
	s.creating = false
	return s.change(ChangeCreating), true
}

// Messages returns a copy of the thread in display order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Sessions returns a copy of the mirrored session list.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Session(nil), s.sessions...)
}

// CurrentSessionID is the server's current session as last reported.
func (s *Store) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Shell returns a copy of the shell log.
func (s *Store) Shell() []ShellEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ShellEntry(nil), s.shell...)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Creating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creating
}

// Seen reports whether id is in the dedup set.
func (s *Store) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// SeenCount is the size of the dedup set.
func (s *Store) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
