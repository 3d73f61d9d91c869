package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

// Printer writes rendered chat changes to a terminal. Changes arrive from
// the connection's read goroutine, timers and the input loop, so writes are
// serialized.
type Printer struct {
	renderer *Renderer
	out      io.Writer

	mu          sync.Mutex
	lastCurrent string
}

func NewPrinter(renderer *Renderer, out io.Writer) *Printer {
	return &Printer{renderer: renderer, out: out}
}

func (p *Printer) Renderer() *Renderer { return p.renderer }

// Print writes pre-rendered text.
func (p *Printer) Print(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.out, s)
}

// Observe renders one change. It has the shape of a chat.Controller
// observer.
func (p *Printer) Observe(ch chat.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.renderer

	switch ch.Kind {
	case chat.ChangeMessage:
		if ch.Message != nil {
			io.WriteString(p.out, r.Message(*ch.Message))
		}
	case chat.ChangeHistory:
		io.WriteString(p.out, r.History(ch.SessionID, ch.Messages))
	case chat.ChangeCleared:
		io.WriteString(p.out, r.System("starting a new session…"))
	case chat.ChangeCreating:
		io.WriteString(p.out, r.System("no reply to new session request; ready again"))
	case chat.ChangeSessions:
		current := ch.SessionID
		if current != "" && current != p.lastCurrent {
			title := current
			for _, s := range ch.Sessions {
				if s.ID == current && s.Title != "" {
					title = fmt.Sprintf("%s [%s]", s.Title, s.ID)
				}
			}
			io.WriteString(p.out, r.System(fmt.Sprintf("current session: %s (%d total)", title, len(ch.Sessions))))
		}
		p.lastCurrent = current
	case chat.ChangeShell:
		if ch.Shell != nil {
			io.WriteString(p.out, r.Shell(*ch.Shell))
		}
	case chat.ChangeShellCleared:
		io.WriteString(p.out, r.System("shell log cleared"))
	case chat.ChangeStatus:
		io.WriteString(p.out, r.Status(ch.Status, ch.Err))
	}
}
