package dialog

import (
	"errors"
	"sync"
	"time"

	"github.com/jujucrew/jubot/internal/domain"
)

// Op identifies which higher-level action opened a selection.
type Op string

const (
	OpAdd     Op = "add"
	OpSuggest Op = "suggest"
)

// Key identifies at most one live selection session: one operation, for one
// user, in one channel of one guild.
type Key struct {
	Op        Op
	GuildID   string // "0" for direct messages
	ChannelID string
	UserID    string
}

// ErrAlreadyOpen is returned by TryOpen when a session already exists for
// the key. It is never retried automatically; the user is told to answer or
// cancel the pending selection.
var ErrAlreadyOpen = errors.New("dialog: selection already open for this key")

// Registry tracks open selection sessions and guarantees at most one live
// session per Key.
type Registry struct {
	mu   sync.Mutex
	open map[Key]*Session
}

func NewRegistry() *Registry {
	return &Registry{open: make(map[Key]*Session)}
}

// TryOpen atomically opens a session for key. Exactly one of two concurrent
// callers racing on the same key succeeds; the other gets ErrAlreadyOpen.
func (r *Registry) TryOpen(key Key, candidates []domain.Candidate) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.open[key]; exists {
		return nil, ErrAlreadyOpen
	}

	s := &Session{
		key:        key,
		reg:        r,
		candidates: candidates,
		createdAt:  time.Now(),
	}
	r.open[key] = s
	return s, nil
}

// IsOpen reports whether a session currently holds the key.
func (r *Registry) IsOpen(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.open[key]
	return exists
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.open)
}

// Session is the handle to one open selection. The opener must release it
// on every exit path, normally via defer Close.
type Session struct {
	key        Key
	reg        *Registry
	candidates []domain.Candidate
	createdAt  time.Time
	once       sync.Once
}

// Candidates returns the candidate list the session was opened with, in
// presentation order.
func (s *Session) Candidates() []domain.Candidate { return s.candidates }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Close releases the session's key. Safe to call any number of times.
func (s *Session) Close() {
	s.once.Do(func() {
		s.reg.mu.Lock()
		delete(s.reg.open, s.key)
		s.reg.mu.Unlock()
	})
}
