package sessions

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Turn is one message in a chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the chat history of one document conversation.
type Session struct {
	ID        string    `json:"id"`
	History   []Turn    `json:"chatHistory"`
	UpdatedAt time.Time `json:"timestamp"`
}

// Append adds a turn to the history.
func (s *Session) Append(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
}

// NewID returns a session id of the form session_<unix seconds>_<uuid>.
func NewID(now time.Time) string {
	return "session_" + strconv.FormatInt(now.Unix(), 10) + "_" + uuid.NewString()
}

// Load returns the stored session, or a fresh empty one when id is unknown.
func Load(ctx context.Context, store Store, id string) (Session, error) {
	s, err := store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Session{ID: id, History: []Turn{}}, nil
	}
	return s, err
}

func cloneHistory(in []Turn) []Turn {
	out := make([]Turn, len(in))
	copy(out, in)
	return out
}
