package store

import (
	"log/slog"

	"github.com/ehrlich-b/wingchat/internal/chat"
)

// Recorder writes chat changes to the transcript. Write failures are
// logged and never reach the chat loop.
type Recorder struct {
	store   *Store
	profile string
	logger  *slog.Logger
}

func NewRecorder(s *Store, profile string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, profile: profile, logger: logger}
}

// Observe records one change. It has the shape of a chat.Controller
// observer.
func (r *Recorder) Observe(ch chat.Change) {
	var err error
	switch ch.Kind {
	case chat.ChangeSessions:
		err = r.store.UpsertSessions(r.profile, ch.Sessions)
	case chat.ChangeMessage:
		if ch.Message != nil {
			_, err = r.store.AppendMessage(ch.SessionID, *ch.Message)
		}
	case chat.ChangeHistory:
		_, err = r.store.ReplaceMessages(ch.SessionID, ch.Messages)
	case chat.ChangeShell:
		if ch.Shell != nil {
			err = r.store.AppendShell(ch.SessionID, *ch.Shell)
		}
	}
	if err != nil {
		r.logger.Warn("transcript write failed", "change", ch.Kind, "err", err)
	}
}
