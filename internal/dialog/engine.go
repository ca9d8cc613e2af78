// Package dialog implements the interactive selection protocol: resolving a
// free-text game query to exactly one confirmed storefront entry through a
// bounded, cancellable, timed conversation with the requesting user.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
)

const (
	// DefaultTimeout is the reply window measured from prompt issuance.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps storefront search results per query.
	DefaultSearchLimit = 5
)

// Catalog is the engine's view of the storefront lookup API.
//
// Implementations fail with an error on a miss, a network failure or a
// malformed response; the engine masks all of those as a not-found outcome.
type Catalog interface {
	AppDetails(ctx context.Context, appID int) (domain.Candidate, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

// Conversation is the chat exchange a disambiguation runs inside: a way to
// prompt the requester and a way to wait for the next inbound message that
// satisfies a predicate. Messages that do not match are ignored by the wait
// and flow to whoever else is listening.
type Conversation interface {
	Prompt(ctx context.Context, text string) error
	AwaitReply(ctx context.Context, match func(domain.Message) bool) (domain.Message, error)
}

// Status is the closed outcome set of a disambiguation.
type Status int

const (
	StatusResolved Status = iota
	StatusNotFound
	StatusCancelled
	StatusTimedOut
	StatusInvalidInput
	StatusAlreadyPending
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not_found"
	case StatusCancelled:
		return "cancelled"
	case StatusTimedOut:
		return "timed_out"
	case StatusInvalidInput:
		return "invalid_input"
	case StatusAlreadyPending:
		return "already_pending"
	default:
		return "unknown"
	}
}

// Request carries one disambiguation invocation.
type Request struct {
	Op        Op
	Query     string
	GuildID   string // empty for direct messages
	ChannelID string
	UserID    string
}

// Result is the typed outcome of a disambiguation. Candidate is set only
// when Status is StatusResolved.
type Result struct {
	Status    Status
	Candidate domain.Candidate
}

// Engine turns a raw query into exactly one confirmed candidate, opening a
// selection session when the query is ambiguous.
type Engine struct {
	catalog  Catalog
	sessions *Registry
	timeout  time.Duration
	limit    int
	log      logger.Logger
}

func NewEngine(catalog Catalog, sessions *Registry, timeout time.Duration, limit int, log logger.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Engine{
		catalog:  catalog,
		sessions: sessions,
		timeout:  timeout,
		limit:    limit,
		log:      log,
	}
}

// Timeout returns the configured reply window.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Disambiguate resolves req.Query to a single candidate or a terminal
// outcome. An all-digits query is treated as an exact app id and never hits
// search. A single search hit resolves immediately without a session. Two or
// more hits open a session, prompt the requester and wait for a qualifying
// reply; the session is released on every exit path.
func (e *Engine) Disambiguate(ctx context.Context, req Request, conv Conversation) Result {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{Status: StatusInvalidInput}
	}

	if isDigits(query) {
		appID, err := strconv.Atoi(query)
		if err != nil {
			// Digit string too long for an int. Still an id lookup by
			// contract, and no id that long exists.
			return Result{Status: StatusNotFound}
		}
		c, err := e.catalog.AppDetails(ctx, appID)
		if err != nil {
			e.log.Debug("app id lookup miss",
				logger.Int("app_id", appID),
				logger.Error(err))
			return Result{Status: StatusNotFound}
		}
		return Result{Status: StatusResolved, Candidate: c}
	}

	key := Key{
		Op:        req.Op,
		GuildID:   guildOrZero(req.GuildID),
		ChannelID: req.ChannelID,
		UserID:    req.UserID,
	}
	// A pending selection short-circuits before any search is issued.
	// TryOpen below still decides races; this check only avoids the call.
	if e.sessions.IsOpen(key) {
		return Result{Status: StatusAlreadyPending}
	}

	candidates, err := e.catalog.Search(ctx, query, e.limit)
	if err != nil {
		e.log.Warn("storefront search failed",
			logger.String("query", query),
			logger.Error(err))
		return Result{Status: StatusNotFound}
	}
	if len(candidates) == 0 {
		return Result{Status: StatusNotFound}
	}
	if len(candidates) == 1 {
		return Result{Status: StatusResolved, Candidate: candidates[0]}
	}

	session, err := e.sessions.TryOpen(key, candidates)
	if err != nil {
		return Result{Status: StatusAlreadyPending}
	}
	defer session.Close()

	if err := conv.Prompt(ctx, PromptText(query, candidates, e.timeout)); err != nil {
		e.log.Warn("selection prompt failed",
			logger.String("channel_id", req.ChannelID),
			logger.Error(err))
		return Result{Status: StatusCancelled}
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reply, err := conv.AwaitReply(waitCtx, selectionMatch(req.UserID, req.ChannelID, len(candidates)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Status: StatusTimedOut}
		}
		// Parent context ended (shutdown) or the conversation broke.
		return Result{Status: StatusCancelled}
	}

	content := strings.ToLower(strings.TrimSpace(reply.Content))
	if content == "cancel" {
		return Result{Status: StatusCancelled}
	}

	n, err := strconv.Atoi(content)
	if err != nil || n < 1 || n > len(candidates) {
		// Unreachable for a reply that passed the matcher.
		return Result{Status: StatusCancelled}
	}
	return Result{Status: StatusResolved, Candidate: candidates[n-1]}
}

// PromptText renders the numbered candidate list shown to the requester.
// Numbering is 1-indexed in search order; the reply instruction and the
// timeout window are part of the contract.
func PromptText(query string, candidates []domain.Candidate, window time.Duration) string {
	lines := make([]string, 0, len(candidates)+1)
	lines = append(lines, fmt.Sprintf(
		"Multiple games found for '%s'. Reply with a number (1-%d) or 'cancel' within %.0f seconds:",
		query, len(candidates), window.Seconds()))
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s (App ID: %d)", i+1, c.Name, c.AppID))
	}
	return strings.Join(lines, "\n")
}

// selectionMatch builds the predicate a qualifying reply must satisfy: same
// author, same channel, and content that is "cancel" (case-insensitive) or
// a bare integer within [1, n].
func selectionMatch(userID, channelID string, n int) func(domain.Message) bool {
	return func(m domain.Message) bool {
		if m.AuthorID != userID || m.ChannelID != channelID {
			return false
		}
		content := strings.ToLower(strings.TrimSpace(m.Content))
		if content == "cancel" {
			return true
		}
		if !isDigits(content) {
			return false
		}
		k, err := strconv.Atoi(content)
		return err == nil && k >= 1 && k <= n
	}
}

func guildOrZero(guildID string) string {
	if guildID == "" {
		return "0"
	}
	return guildID
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
