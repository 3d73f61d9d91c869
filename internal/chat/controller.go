package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ehrlich-b/wingchat/internal/ws"
)

// ClearCommand is the shell pseudo-command that empties the shell log
// locally without contacting the server.
const ClearCommand = "__clear__"

// DefaultCreateTimeout bounds how long the creating flag stays set when the
// server never answers a create_session.
const DefaultCreateTimeout = 3 * time.Second

// ErrCreatePending is returned by CreateSession while an earlier request is
// still unanswered.
var ErrCreatePending = errors.New("session creation already in progress")

// Sender is the outbound half of a connection.
type Sender interface {
	Status() ws.Status
	Send(ctx context.Context, v any) error
}

// Controller turns user actions into frames and inbound frames into store
// changes. Every change is reported to the observer in the order it was made.
type Controller struct {
	store         *Store
	sender        Sender
	createTimeout time.Duration
	logger        *slog.Logger
	observe       func(Change)

	mu          sync.Mutex
	createTimer *time.Timer
	closed      bool
}

type Option func(*Controller)

// WithCreateTimeout overrides DefaultCreateTimeout.
func WithCreateTimeout(d time.Duration) Option {
	return func(c *Controller) { c.createTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithObserver registers fn to receive every Change. fn may be called from
// the connection's read goroutine and from timers.
func WithObserver(fn func(Change)) Option {
	return func(c *Controller) { c.observe = fn }
}

func NewController(store *Store, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		store:         store,
		sender:        sender,
		createTimeout: DefaultCreateTimeout,
		logger:        slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Store() *Store { return c.store }

func (c *Controller) emit(ch Change) {
	if ch.Kind == ChangeNone || c.observe == nil {
		return
	}
	c.observe(ch)
}

// HandleFrame applies an inbound frame. It is meant to be wired as the
// connection's OnFrame.
func (c *Controller) HandleFrame(f ws.Frame) {
	ch := c.store.Apply(f)
	if ch.Kind == ChangeDuplicate {
		c.logger.Debug("dropping duplicate frame", "type", f.Type, "id", f.ID)
	}
	c.emit(ch)
}

// HandleStatus reports a connection state transition. It is meant to be
// wired as the connection's OnStateChange.
func (c *Controller) HandleStatus(status ws.Status, err error) {
	if err != nil {
		c.logger.Debug("connection state", "status", status, "err", err)
	}
	c.emit(Change{Kind: ChangeStatus, SessionID: c.store.CurrentSessionID(), Status: status, Err: err})
}

func (c *Controller) connected() bool {
	return c.sender.Status() == ws.StatusConnected
}

// CreateSession asks the server for a new session. The thread is cleared
// right away; the creating flag clears on the server's reply or, failing
// that, after the create timeout.
func (c *Controller) CreateSession(ctx context.Context) error {
	if !c.connected() {
		return ws.ErrNotConnected
	}
	ch, ok := c.store.BeginCreate()
	if !ok {
		return ErrCreatePending
	}
	c.emit(ch)
	c.armCreateTimer()

	if err := c.sender.Send(ctx, ws.CreateSession{Type: ws.TypeCreateSession}); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (c *Controller) armCreateTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.createTimer != nil {
		c.createTimer.Stop()
	}
	c.createTimer = time.AfterFunc(c.createTimeout, func() {
		if ch, ok := c.store.EndCreate(); ok {
			c.logger.Debug("create_session unanswered, clearing flag", "after", c.createTimeout)
			c.emit(ch)
		}
	})
}

// SwitchSession asks the server to make id current; it answers with a
// session list and the session's messages.
func (c *Controller) SwitchSession(ctx context.Context, id string) error {
	if !c.connected() {
		return ws.ErrNotConnected
	}
	if err := c.sender.Send(ctx, ws.SwitchSession{Type: ws.TypeSwitchSession, SessionID: id}); err != nil {
		return fmt.Errorf("switch session: %w", err)
	}
	return nil
}

// DeleteSession asks the server to delete session id.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	if !c.connected() {
		return ws.ErrNotConnected
	}
	if err := c.sender.Send(ctx, ws.DeleteSession{Type: ws.TypeDeleteSession, SessionID: id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SendMessage echoes text into the thread and sends it to the server. Blank
// input is ignored. When disconnected the echo stays but nothing is sent and
// ws.ErrNotConnected is returned.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.emit(c.store.AddUserMessage(text))

	if !c.connected() {
		c.logger.Warn("message not sent: not connected")
		return ws.ErrNotConnected
	}
	c.emit(c.store.SetLoading(true))
	if err := c.sender.Send(ctx, ws.UserMessage{Type: ws.TypeMessage, Content: text}); err != nil {
		c.emit(c.store.SetLoading(false))
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// RunShell sends command to the server's shell. ClearCommand empties the
// shell log without a network call.
func (c *Controller) RunShell(ctx context.Context, command string) error {
	if command == ClearCommand {
		c.emit(c.store.ClearShell())
		return nil
	}
	if strings.TrimSpace(command) == "" {
		return nil
	}
	c.emit(c.store.AddShellEntry(ShellCommand, command))

	if !c.connected() {
		c.emit(c.store.AddShellEntry(ShellError, c.store.labels.NotConnected))
		return ws.ErrNotConnected
	}
	if err := c.sender.Send(ctx, ws.ShellCommand{Type: ws.TypeShellCommand, Command: command}); err != nil {
		c.emit(c.store.AddShellEntry(ShellError, err.Error()))
		return fmt.Errorf("shell command: %w", err)
	}
	return nil
}

// Close stops the create timer. Frames arriving afterwards are still applied
// if the caller keeps the connection running.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.createTimer != nil {
		c.createTimer.Stop()
		c.createTimer = nil
	}
}
