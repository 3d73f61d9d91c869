package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/wingchat/internal/chat"
	"github.com/ehrlich-b/wingchat/internal/config"
	"github.com/ehrlich-b/wingchat/internal/store"
	"github.com/ehrlich-b/wingchat/internal/ui"
)

func historyCmd(a *app) *cobra.Command {
	var path string
	var shellLines int
	cmd := &cobra.Command{
		Use:   "history [session]",
		Short: "List recorded sessions, or print one session's messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.Transcript
			}
			if path == "" {
				dir, err := config.GetUserConfigDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, "transcript.db")
			}
			path = config.ExpandHome(path)

			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if len(args) > 0 {
					return fmt.Errorf("no recorded messages for session %s", args[0])
				}
				fmt.Fprintln(out, "no recorded sessions in", path)
				return nil
			}
			st, err := store.Open(path)
			if err != nil {
				return err
			}
			defer st.Close()

			r := ui.NewRenderer(ui.DefaultTheme())
			if w, ok := termWidth(out); ok {
				r.SetWidth(w)
			}

			if shellLines != 0 {
				lines, err := st.ListShell(shellLines)
				if err != nil {
					return err
				}
				entries := make([]chat.ShellEntry, len(lines))
				for i, l := range lines {
					entries[i] = chat.ShellEntry{Kind: chat.ShellKind(l.Kind), Text: l.Text, Timestamp: l.Timestamp}
				}
				fmt.Fprint(out, r.ShellLog(entries))
				return nil
			}

			if len(args) == 0 {
				sessions, err := st.ListSessions()
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(out, "no recorded sessions in", path)
					return nil
				}
				for _, s := range sessions {
					title := s.Title
					if title == "" {
						title = "(untitled)"
					}
					when := "-"
					if !s.LastMessageAt.IsZero() {
						when = s.LastMessageAt.Local().Format("2006-01-02 15:04")
					}
					fmt.Fprintf(out, "%-36s  %-8s  %-16s  %4d/%-4d  %s\n", s.ID, s.Profile, when, s.Recorded, s.MessageCount, title)
				}
				return nil
			}

			msgs, err := st.ListMessages(args[0])
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return fmt.Errorf("no recorded messages for session %s", args[0])
			}
			for _, m := range msgs {
				fmt.Fprint(out, r.Message(chat.Message{
					ID:         m.ID,
					Role:       chat.Role(m.Role),
					Content:    m.Content,
					Timestamp:  m.Timestamp,
					ToolName:   m.ToolName,
					ToolStatus: m.ToolStatus,
					IsError:    m.IsError,
				}))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "transcript", "", "transcript database (default from config, then ~/.wingchat/transcript.db)")
	cmd.Flags().IntVar(&shellLines, "shell", 0, "print the last N recorded shell lines instead (-1 for all)")
	return cmd
}

// openTranscript opens the transcript at path, creating ~/.wingchat first
// when the database lives there.
func openTranscript(path string) (*store.Store, error) {
	path = config.ExpandHome(path)
	if dir, err := config.GetUserConfigDir(); err == nil && filepath.Dir(path) == dir {
		if _, err := config.EnsureConfigDir(); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
	}
	return store.Open(path)
}
