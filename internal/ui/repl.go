package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ehrlich-b/wingchat/internal/api"
	"github.com/ehrlich-b/wingchat/internal/chat"
	"github.com/ehrlich-b/wingchat/internal/ws"
)

// Connection is the part of the socket client the REPL drives directly.
type Connection interface {
	Status() ws.Status
	Reconnect()
}

// FileSource serves /files and /cat.
type FileSource interface {
	ExplorerTree(ctx context.Context, dir string, logger *slog.Logger) []api.FileNode
	FileContent(ctx context.Context, path string) ([]byte, error)
}

type Options struct {
	Title     string
	Welcome   string
	OutputDir string
	Logger    *slog.Logger
}

// REPL provides a readline-style chat interface without full-screen
// rendering.
type REPL struct {
	ctrl    *chat.Controller
	conn    Connection
	files   FileSource
	printer *Printer
	opts    Options
}

// NewREPL wires a REPL. files may be nil, which disables /files and /cat.
func NewREPL(ctrl *chat.Controller, conn Connection, files FileSource, printer *Printer, opts Options) *REPL {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	return &REPL{ctrl: ctrl, conn: conn, files: files, printer: printer, opts: opts}
}

// Run reads commands from in until EOF, /quit or ctx cancellation.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.printer.Print(r.printer.Renderer().Welcome(r.opts.Title, r.opts.Welcome))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			cmd, err := ParseCommand(line)
			if errors.Is(err, ErrEmpty) {
				continue
			}
			if err != nil {
				r.printer.Print(r.printer.Renderer().Error(err))
				continue
			}
			if r.Execute(ctx, cmd) {
				return nil
			}
		}
	}
}

func (r *REPL) prompt() {
	if r.ctrl.Store().Loading() {
		r.printer.Print("⏳ > ")
		return
	}
	r.printer.Print("> ")
}

// Execute runs one command and reports whether the REPL should exit.
// Failures are printed, never returned: a dropped connection is an alert,
// not a reason to stop.
func (r *REPL) Execute(ctx context.Context, cmd Command) bool {
	rd := r.printer.Renderer()
	store := r.ctrl.Store()

	var err error
	switch cmd.Kind {
	case CmdMessage:
		err = r.ctrl.SendMessage(ctx, cmd.Arg)
		if errors.Is(err, ws.ErrNotConnected) {
			err = fmt.Errorf("not connected; message kept locally but not sent")
		}
	case CmdNew:
		err = r.ctrl.CreateSession(ctx)
	case CmdSwitch, CmdDelete:
		var id string
		id, err = ResolveSession(cmd.Arg, store.Sessions())
		if err != nil {
			break
		}
		if cmd.Kind == CmdSwitch {
			err = r.ctrl.SwitchSession(ctx, id)
		} else {
			err = r.ctrl.DeleteSession(ctx, id)
		}
	case CmdSessions:
		r.printer.Print(rd.Sessions(store.Sessions(), store.CurrentSessionID()))
	case CmdFiles:
		if r.files == nil {
			err = errors.New("file browsing is not available")
			break
		}
		dir := cmd.Arg
		if dir == "" {
			dir = r.opts.OutputDir
		}
		r.printer.Print(rd.Tree(r.files.ExplorerTree(ctx, dir, r.opts.Logger), true))
	case CmdCat:
		if r.files == nil {
			err = errors.New("file browsing is not available")
			break
		}
		var data []byte
		if data, err = r.files.FileContent(ctx, cmd.Arg); err == nil {
			r.printer.Print(rd.File(cmd.Arg, data))
		}
	case CmdShell:
		// a disconnected shell already logged its own error entry
		if err = r.ctrl.RunShell(ctx, cmd.Arg); errors.Is(err, ws.ErrNotConnected) {
			err = nil
		}
	case CmdClear:
		err = r.ctrl.RunShell(ctx, chat.ClearCommand)
	case CmdShellLog:
		r.printer.Print(rd.ShellLog(store.Shell()))
	case CmdReconnect:
		r.conn.Reconnect()
		r.printer.Print(rd.System("reconnecting…"))
	case CmdStatus:
		r.printer.Print(rd.Status(r.conn.Status(), nil))
		current := store.CurrentSessionID()
		if current == "" {
			current = "(none)"
		}
		r.printer.Print(rd.System(fmt.Sprintf("session %s · %d messages · %d shell lines", current, len(store.Messages()), len(store.Shell()))))
	case CmdHelp:
		r.printer.Print(rd.Help())
	case CmdQuit:
		return true
	}
	if err != nil {
		r.opts.Logger.Debug("command failed", "kind", cmd.Kind, "err", err)
		r.printer.Print(rd.Error(err))
	}
	return false
}
