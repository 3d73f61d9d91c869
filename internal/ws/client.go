package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/time/rate"
)

var (
	// ErrAuthRejected is returned when the server rejects the WebSocket handshake with 401.
	ErrAuthRejected = errors.New("server rejected authentication (401)")

	// ErrNotConnected is returned by Send when no socket is live. Frames are
	// never queued for later delivery.
	ErrNotConnected = errors.New("not connected to server")

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("client closed")
)

const (
	writeTimeout = 10 * time.Second
	readLimit    = 8 << 20 // tool results and session replays can be large
)

// Status is the connection state shown to the user.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Client keeps one WebSocket open to an agent server and hands every decoded
// frame to OnFrame. Fields must be set before Run.
type Client struct {
	URL    string // e.g. "ws://localhost:8000/ws"
	Token  string // optional bearer token for proxied deployments
	Policy ReconnectPolicy

	// Limiter throttles outbound frames when set.
	Limiter *rate.Limiter
	Logger  *slog.Logger

	OnFrame       func(Frame)                    // called on the read goroutine, in receive order
	OnStateChange func(status Status, err error) // called on connection state transitions

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status
	closed bool
	cancel context.CancelFunc
	redial chan struct{}
}

// NewClient returns a client for url with the default reconnect policy.
func NewClient(url string) *Client {
	return &Client{URL: url, Policy: DefaultPolicy()}
}

// Run connects and processes frames until ctx is cancelled or Close is called.
// A dropped socket is redialed after the policy's delay; dial and read errors
// never escape Run, only cancellation, auth rejection and an exhausted
// MaxAttempts do.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.cancel = cancel
	if c.redial == nil {
		c.redial = make(chan struct{}, 1)
	}
	redial := c.redial
	c.mu.Unlock()

	bo := c.Policy.Backoff()
	failures := 0
	for {
		c.setStatus(StatusConnecting, nil)
		connected, err := c.connectAndServe(ctx)
		if ctx.Err() != nil {
			c.setStatus(StatusDisconnected, nil)
			return c.exitErr(ctx)
		}
		if errors.Is(err, ErrAuthRejected) {
			c.setStatus(StatusDisconnected, err)
			return err
		}
		if connected {
			bo.Reset()
			failures = 0
		}
		failures++
		c.setStatus(StatusDisconnected, err)
		if max := c.Policy.MaxAttempts; max > 0 && failures >= max {
			return fmt.Errorf("giving up after %d attempts: %w", failures, err)
		}

		delay := bo.Next()
		c.logger().Info("server disconnected, reconnecting", "err", err, "in", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.exitErr(ctx)
		case <-redial:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Client) exitErr(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *Client) connectAndServe(ctx context.Context) (connected bool, err error) {
	opts := &websocket.DialOptions{HTTPHeader: make(http.Header)}
	if c.Token != "" {
		opts.HTTPHeader.Set("Authorization", "Bearer "+c.Token)
	}

	conn, resp, err := websocket.Dial(ctx, c.URL, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return false, ErrAuthRejected
		}
		return false, fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(readLimit)

	// Publish the new socket; any socket still tracked is closed first so two
	// never race. A redial requested while dialing is satisfied by this
	// connection and must not cut the next reconnect delay short.
	c.mu.Lock()
	old := c.conn
	c.conn = conn
	select {
	case <-c.redial:
	default:
	}
	c.mu.Unlock()
	if old != nil {
		old.CloseNow()
	}
	defer c.release(conn)

	c.setStatus(StatusConnected, nil)
	c.logger().Info("connected", "url", c.URL)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		frame, err := ParseFrame(data)
		if err != nil {
			c.logger().Warn("dropping malformed frame", "err", err)
			continue
		}
		if c.OnFrame != nil {
			c.OnFrame(frame)
		}
	}
}

// release unpublishes conn only if it is still the tracked socket, so a stale
// teardown never clears a newer connection.
func (c *Client) release(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.CloseNow()
}

func (c *Client) setStatus(s Status, err error) {
	c.mu.Lock()
	changed := c.status != s
	c.status = s
	c.mu.Unlock()
	if changed && c.OnStateChange != nil {
		c.OnStateChange(s, err)
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Status reports the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Send writes v as one JSON text frame. It returns ErrNotConnected when no
// socket is live.
func (c *Client) Send(ctx context.Context, v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// Reconnect drops the current socket, if any, and dials again without
// waiting out the reconnect delay.
func (c *Client) Reconnect() {
	c.mu.Lock()
	conn := c.conn
	if c.redial != nil {
		select {
		case c.redial <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
	if conn != nil {
		conn.CloseNow()
	}
}

// Close tears the client down: the pending reconnect wait is cancelled, the
// live socket is closed and Run returns without reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	return nil
}
