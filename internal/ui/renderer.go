package ui

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ehrlich-b/wingchat/internal/api"
	"github.com/ehrlich-b/wingchat/internal/chat"
	"github.com/ehrlich-b/wingchat/internal/ws"
)

// Renderer handles ANSI-styled rendering of chat state for immediate output
// to scrollback
type Renderer struct {
	theme Theme
	width int
}

// NewRenderer creates a new ANSI renderer with the given theme
func NewRenderer(theme Theme) *Renderer {
	return &Renderer{theme: theme}
}

// SetWidth bounds card width; 0 leaves cards unbounded.
func (r *Renderer) SetWidth(width int) {
	r.width = width
}

func (r *Renderer) stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return " " + r.theme.Timestamp.Render(t.Local().Format("15:04"))
}

// Message renders one thread entry.
func (r *Renderer) Message(m chat.Message) string {
	switch m.Role {
	case chat.RoleUser:
		prefix := r.theme.UserMessage.Render("You:")
		return prefix + " " + r.theme.UserMessageContent.Render(m.Content) + r.stamp(m.Timestamp) + "\n\n"
	case chat.RoleTool:
		header := r.theme.ToolHeader.Render("🔧 Tool") + r.stamp(m.Timestamp)
		return r.boxed(r.theme.ToolCard, header, m.Content)
	default:
		if m.IsError {
			return r.theme.ErrorMessage.Render(m.Content) + "\n\n"
		}
		header := r.theme.AssistantHead.Render("🤖 Assistant") + r.stamp(m.Timestamp)
		return r.boxed(r.theme.AssistantCard, header, r.theme.AgentMessage.Render(m.Content))
	}
}

func (r *Renderer) boxed(style lipgloss.Style, header, body string) string {
	if r.width > 4 {
		style = style.Width(r.width - 2)
	}
	return style.Render(header+"\n"+body) + "\n"
}

// History renders a replaced thread with a divider naming the session.
func (r *Renderer) History(sessionID string, msgs []chat.Message) string {
	var b strings.Builder
	label := "history"
	if sessionID != "" {
		label = "session " + sessionID
	}
	b.WriteString(r.System(fmt.Sprintf("── %s (%d messages) ──", label, len(msgs))))
	for _, m := range msgs {
		b.WriteString(r.Message(m))
	}
	return b.String()
}

// Shell renders one shell log entry.
func (r *Renderer) Shell(e chat.ShellEntry) string {
	switch e.Kind {
	case chat.ShellCommand:
		return r.theme.ShellCommand.Render("$ "+e.Text) + "\n"
	case chat.ShellError:
		return r.theme.ShellError.Render(e.Text) + "\n"
	default:
		return r.theme.ShellOutput.Render(strings.TrimRight(e.Text, "\n")) + "\n"
	}
}

// ShellLog renders the whole shell log.
func (r *Renderer) ShellLog(entries []chat.ShellEntry) string {
	if len(entries) == 0 {
		return r.System("shell log is empty")
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(r.Shell(e))
	}
	return b.String() + "\n"
}

// Sessions renders the numbered session list; numbers are what /switch and
// /delete accept with a leading '#'.
func (r *Renderer) Sessions(sessions []chat.Session, current string) string {
	if len(sessions) == 0 {
		return r.System("no sessions")
	}
	var b strings.Builder
	b.WriteString(r.theme.Title.Render("Sessions") + "\n")
	for i, s := range sessions {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		when := ""
		if !s.LastMessageAt.IsZero() {
			when = "  " + s.LastMessageAt.Local().Format("2006-01-02 15:04")
		}
		line := fmt.Sprintf("%2d. %s  [%s]  %d msgs%s", i+1, title, s.ID, s.MessageCount, when)
		if s.ID == current {
			b.WriteString(r.theme.CurrentSession.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(r.theme.Session.Render("  "+line) + "\n")
		}
	}
	return b.String() + "\n"
}

// Tree renders a file tree; collapsed directories hide their children
// unless all is set.
func (r *Renderer) Tree(nodes []api.FileNode, all bool) string {
	var b strings.Builder
	api.Walk(nodes, func(n api.FileNode, depth int) bool {
		indent := strings.Repeat("  ", depth)
		if n.IsDir() {
			b.WriteString(indent + r.theme.Directory.Render("📁 "+n.Name+"/") + "\n")
			return all || n.Expanded
		}
		size := ""
		if n.Size > 0 {
			size = " " + r.theme.Timestamp.Render(HumanSize(n.Size))
		}
		b.WriteString(indent + r.theme.File.Render("📄 "+n.Name) + size + "\n")
		return true
	})
	return b.String() + "\n"
}

// File renders file content as a code block labeled with its path.
func (r *Renderer) File(filePath string, content []byte) string {
	header := r.theme.Directory.Render(filePath)
	if lang := strings.TrimPrefix(path.Ext(filePath), "."); lang != "" {
		header += " " + r.theme.Timestamp.Render(lang)
	}
	style := r.theme.CodeBlock
	if r.width > 4 {
		style = style.Width(r.width - 2)
	}
	return header + "\n" + style.Render(strings.TrimRight(string(content), "\n")) + "\n\n"
}

// Status renders a connection state line.
func (r *Renderer) Status(status ws.Status, err error) string {
	style := r.theme.Disconnected
	icon := "●"
	switch status {
	case ws.StatusConnected:
		style = r.theme.Connected
	case ws.StatusConnecting:
		style = r.theme.Connecting
		icon = "◌"
	}
	line := style.Render(icon + " " + status.String())
	if err != nil {
		line += " " + r.theme.SystemMessage.UnsetMarginLeft().Render("("+err.Error()+")")
	}
	return "  " + line + "\n"
}

// Error renders a client-side error.
func (r *Renderer) Error(err error) string {
	return r.theme.ErrorMessage.Render("✗ "+err.Error()) + "\n\n"
}

// System renders a system message
func (r *Renderer) System(content string) string {
	styled := r.theme.SystemMessage.Render(content)
	return styled + "\n\n"
}

// Welcome renders the banner shown when the REPL starts.
func (r *Renderer) Welcome(title, message string) string {
	if title == "" {
		title = "wingchat"
	}
	out := r.theme.Title.Render(title) + "\n"
	if message != "" {
		out += r.theme.SystemMessage.Render(message) + "\n"
	}
	return out + "\n"
}

// Help lists the REPL commands.
func (r *Renderer) Help() string {
	var b strings.Builder
	for _, c := range commandHelp {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", c[0], c[1]))
	}
	return r.theme.SystemMessage.UnsetMarginLeft().Render(b.String()) + "\n"
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
