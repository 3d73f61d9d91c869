package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

type CommandKind int

const (
	CmdMessage CommandKind = iota
	CmdNew
	CmdSwitch
	CmdDelete
	CmdSessions
	CmdFiles
	CmdCat
	CmdShell
	CmdClear
	CmdShellLog
	CmdReconnect
	CmdStatus
	CmdHelp
	CmdQuit
)

// Command is one parsed line of REPL input.
type Command struct {
	Kind CommandKind
	Arg  string
}

var ErrEmpty = errors.New("empty input")

var commands = map[string]CommandKind{
	"new":       CmdNew,
	"switch":    CmdSwitch,
	"delete":    CmdDelete,
	"sessions":  CmdSessions,
	"files":     CmdFiles,
	"cat":       CmdCat,
	"sh":        CmdShell,
	"clear":     CmdClear,
	"shell":     CmdShellLog,
	"reconnect": CmdReconnect,
	"status":    CmdStatus,
	"help":      CmdHelp,
	"quit":      CmdQuit,
	"exit":      CmdQuit,
}

var commandHelp = [][2]string{
	{"<text>", "send a message"},
	{"/new", "start a new session"},
	{"/sessions", "list sessions"},
	{"/switch <id|#n>", "switch to a session"},
	{"/delete <id|#n>", "delete a session"},
	{"/files [dir]", "show the output file tree"},
	{"/cat <path>", "print a file from the server"},
	{"/sh <cmd>, !<cmd>", "run a shell command on the server"},
	{"/shell", "show the shell log"},
	{"/clear", "clear the shell log"},
	{"/reconnect", "drop and redial the connection"},
	{"/status", "show connection status"},
	{"/help", "show this help"},
	{"/quit", "exit"},
}

// ParseCommand classifies a line. Lines not starting with '/' or '!' are
// messages; "//text" sends "/text" literally.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{}, ErrEmpty
	}
	switch {
	case strings.HasPrefix(trimmed, "//"):
		return Command{Kind: CmdMessage, Arg: trimmed[1:]}, nil
	case strings.HasPrefix(trimmed, "!"):
		arg := strings.TrimSpace(trimmed[1:])
		if arg == "" {
			return Command{}, fmt.Errorf("usage: !<command>")
		}
		return Command{Kind: CmdShell, Arg: arg}, nil
	case !strings.HasPrefix(trimmed, "/"):
		return Command{Kind: CmdMessage, Arg: line}, nil
	}

	name, arg, _ := strings.Cut(trimmed[1:], " ")
	arg = strings.TrimSpace(arg)
	kind, ok := commands[strings.ToLower(name)]
	if !ok {
		return Command{}, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	switch kind {
	case CmdSwitch, CmdDelete, CmdCat, CmdShell:
		if arg == "" {
			return Command{}, fmt.Errorf("usage: /%s <argument>", name)
		}
	}
	return Command{Kind: kind, Arg: arg}, nil
}

// ResolveSession maps "#n" (1-based position in the listed sessions), an
// id, or a unique id prefix of at least four characters to an id. Unknown
// ids are passed through for the server to judge.
func ResolveSession(ref string, sessions []chat.Session) (string, error) {
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 1 || i > len(sessions) {
			return "", fmt.Errorf("no session %s (have %d)", ref, len(sessions))
		}
		return sessions[i-1].ID, nil
	}
	var match []string
	for _, s := range sessions {
		if s.ID == ref {
			return ref, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(s.ID, ref) {
			match = append(match, s.ID)
		}
	}
	switch len(match) {
	case 0:
		return ref, nil
	case 1:
		return match[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous", ref)
	}
}
