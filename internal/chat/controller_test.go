package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

// mockSender is a testify mock of the outbound connection.
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Status() ws.Status {
	args := m.Called()
	return args.Get(0).(ws.Status)
}

func (m *mockSender) Send(ctx context.Context, v any) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func newSender(status ws.Status) *mockSender {
	m := &mockSender{}
	m.On("Status").Return(status)
	return m
}

// changeLog collects observed changes.
type changeLog struct {
	mu      sync.Mutex
	changes []Change
}

func (l *changeLog) observe(ch Change) {
	l.mu.Lock()
	l.changes = append(l.changes, ch)
	l.mu.Unlock()
}

func (l *changeLog) kinds() []ChangeKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ChangeKind, len(l.changes))
	for i, ch := range l.changes {
		out[i] = ch.Kind
	}
	return out
}

func TestSendMessageConnected(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, ws.UserMessage{Type: ws.TypeMessage, Content: "hi there"}).Return(nil).Once()

	log := &changeLog{}
	c := NewController(NewStore(DefaultLabels()), sender, WithObserver(log.observe))
	if err := c.SendMessage(context.Background(), "hi there"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Store().Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleUser || msgs[0].Content != "hi there" {
		t.Fatalf("messages = %+v", msgs)
	}
	if !c.Store().Loading() {
		t.Error("loading should be set after send")
	}
	kinds := log.kinds()
	if len(kinds) != 2 || kinds[0] != ChangeMessage || kinds[1] != ChangeLoading {
		t.Errorf("changes = %v", kinds)
	}
	sender.AssertExpectations(t)
}

func TestSendMessageDisconnectedEchoesOnly(t *testing.T) {
	sender := newSender(ws.StatusDisconnected)

	c := NewController(NewStore(DefaultLabels()), sender)
	err := c.SendMessage(context.Background(), "hello")
	if !errors.Is(err, ws.ErrNotConnected) {
		t.Fatalf("SendMessage = %v, want ErrNotConnected", err)
	}
	if n := len(c.Store().Messages()); n != 1 {
		t.Errorf("echo count = %d, want 1", n)
	}
	if c.Store().Loading() {
		t.Error("loading must stay false when nothing was sent")
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendMessageBlankIgnored(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	c := NewController(NewStore(DefaultLabels()), sender)
	if err := c.SendMessage(context.Background(), "   \n"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(c.Store().Messages()) != 0 {
		t.Error("blank input must not echo")
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendMessageWriteFailureClearsLoading(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("broken pipe"))

	c := NewController(NewStore(DefaultLabels()), sender)
	if err := c.SendMessage(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if c.Store().Loading() {
		t.Error("loading should be cleared after a failed write")
	}
}

func TestShellClearIsLocal(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, ws.ShellCommand{Type: ws.TypeShellCommand, Command: "ls"}).Return(nil).Once()

	c := NewController(NewStore(DefaultLabels()), sender)
	if err := c.RunShell(context.Background(), "ls"); err != nil {
		t.Fatalf("RunShell: %v", err)
	}
	log := c.Store().Shell()
	if len(log) != 1 || log[0].Kind != ShellCommand || log[0].Text != "ls" {
		t.Fatalf("shell = %+v", log)
	}

	if err := c.RunShell(context.Background(), ClearCommand); err != nil {
		t.Fatalf("RunShell clear: %v", err)
	}
	if len(c.Store().Shell()) != 0 {
		t.Error("shell log should be empty after __clear__")
	}
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestShellDisconnected(t *testing.T) {
	sender := newSender(ws.StatusConnecting)
	c := NewController(NewStore(DefaultLabels()), sender)

	err := c.RunShell(context.Background(), "pwd")
	if !errors.Is(err, ws.ErrNotConnected) {
		t.Fatalf("RunShell = %v", err)
	}
	log := c.Store().Shell()
	if len(log) != 2 || log[0].Kind != ShellCommand || log[1].Kind != ShellError || log[1].Text != "Not connected to server" {
		t.Errorf("shell = %+v", log)
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCreateSessionTimeout(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, ws.CreateSession{Type: ws.TypeCreateSession}).Return(nil)

	log := &changeLog{}
	store := NewStore(DefaultLabels())
	store.AddUserMessage("old")
	c := NewController(store, sender, WithCreateTimeout(50*time.Millisecond), WithObserver(log.observe))
	defer c.Close()

	if err := c.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if !store.Creating() {
		t.Fatal("creating should be set")
	}
	if len(store.Messages()) != 0 {
		t.Error("thread should be cleared optimistically")
	}
	if err := c.CreateSession(context.Background()); !errors.Is(err, ErrCreatePending) {
		t.Errorf("second CreateSession = %v, want ErrCreatePending", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.Creating() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.Creating() {
		t.Fatal("creating flag never cleared")
	}
	kinds := log.kinds()
	if kinds[len(kinds)-1] != ChangeCreating {
		t.Errorf("last change = %v, want ChangeCreating", kinds[len(kinds)-1])
	}
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestCreateSessionAnswered(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	log := &changeLog{}
	c := NewController(NewStore(DefaultLabels()), sender, WithCreateTimeout(100*time.Millisecond), WithObserver(log.observe))
	defer c.Close()

	if err := c.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	c.HandleFrame(ws.Frame{Type: ws.TypeSessionsList, CurrentSessionID: "new", Sessions: []ws.SessionInfo{{ID: "new"}}})
	if c.Store().Creating() {
		t.Error("sessions_list should clear creating")
	}

	time.Sleep(200 * time.Millisecond)
	for _, k := range log.kinds() {
		if k == ChangeCreating {
			t.Error("timer should not report a change once the server answered")
		}
	}
}

func TestCreateSessionDefaultTimeout(t *testing.T) {
	c := NewController(NewStore(DefaultLabels()), newSender(ws.StatusConnected))
	if c.createTimeout != 3*time.Second {
		t.Errorf("default create timeout = %v, want 3s", c.createTimeout)
	}
}

func TestSessionActionsRequireConnection(t *testing.T) {
	sender := newSender(ws.StatusDisconnected)
	c := NewController(NewStore(DefaultLabels()), sender)
	ctx := context.Background()

	if err := c.CreateSession(ctx); !errors.Is(err, ws.ErrNotConnected) {
		t.Errorf("CreateSession = %v", err)
	}
	if err := c.SwitchSession(ctx, "s1"); !errors.Is(err, ws.ErrNotConnected) {
		t.Errorf("SwitchSession = %v", err)
	}
	if err := c.DeleteSession(ctx, "s1"); !errors.Is(err, ws.ErrNotConnected) {
		t.Errorf("DeleteSession = %v", err)
	}
	if c.Store().Creating() {
		t.Error("creating must not be set while disconnected")
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSwitchAndDelete(t *testing.T) {
	sender := newSender(ws.StatusConnected)
	sender.On("Send", mock.Anything, ws.SwitchSession{Type: ws.TypeSwitchSession, SessionID: "s1"}).Return(nil).Once()
	sender.On("Send", mock.Anything, ws.DeleteSession{Type: ws.TypeDeleteSession, SessionID: "s2"}).Return(nil).Once()

	c := NewController(NewStore(DefaultLabels()), sender)
	if err := c.SwitchSession(context.Background(), "s1"); err != nil {
		t.Fatalf("SwitchSession: %v", err)
	}
	if err := c.DeleteSession(context.Background(), "s2"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	sender.AssertExpectations(t)
}

func TestHandleStatusEmits(t *testing.T) {
	log := &changeLog{}
	c := NewController(NewStore(DefaultLabels()), newSender(ws.StatusDisconnected), WithObserver(log.observe))
	c.HandleStatus(ws.StatusConnecting, nil)
	c.HandleFrame(ws.Frame{Type: ws.TypeUser})
	kinds := log.kinds()
	if len(kinds) != 1 || kinds[0] != ChangeStatus {
		t.Errorf("changes = %v, want only ChangeStatus (ignored frames are not reported)", kinds)
	}
}
