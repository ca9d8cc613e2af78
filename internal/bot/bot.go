// Package bot is the command surface: it parses prefixed chat commands,
// gates admin operations, runs disambiguations through the dialog engine
// and renders every outcome back into the originating channel.
package bot

import (
	"context"
	"strings"

	"github.com/jujucrew/jubot/internal/dialog"
	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/store/jsonfile"
)

// Sender delivers one outbound chat message. Satisfied by the gateway
// client; tests substitute a recorder.
type Sender interface {
	Send(channelID, content string) error
}

type Bot struct {
	prefix      string
	adminRoleID string

	engine  *dialog.Engine
	store   *jsonfile.Store
	sender  Sender
	waiters *Waiters
	log     logger.Logger
}

type Options struct {
	Prefix      string
	AdminRoleID string // empty means no one may mutate the list
}

func New(opts Options, engine *dialog.Engine, store *jsonfile.Store, sender Sender, log logger.Logger) *Bot {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = ">>"
	}
	return &Bot{
		prefix:      prefix,
		adminRoleID: opts.AdminRoleID,
		engine:      engine,
		store:       store,
		sender:      sender,
		waiters:     NewWaiters(),
		log:         log,
	}
}

// HandleMessage is the gateway's message hook. Selection waiters get first
// refusal; a consumed reply never reaches command dispatch. Commands run on
// their own goroutine because a selection can block for the full reply
// window and must not stall the read loop or other sessions.
func (b *Bot) HandleMessage(ctx context.Context, msg domain.Message) {
	if b.waiters.Offer(msg) {
		return
	}
	if !strings.HasPrefix(msg.Content, b.prefix) {
		return
	}
	go b.dispatch(ctx, msg)
}

func (b *Bot) dispatch(ctx context.Context, msg domain.Message) {
	line := strings.TrimSpace(strings.TrimPrefix(msg.Content, b.prefix))
	cmd, rest := splitWord(line)

	switch strings.ToLower(cmd) {
	case "ping":
		b.say(msg.ChannelID, "Pong!")
	case "help":
		b.say(msg.ChannelID, b.helpText())
	case "games":
		b.dispatchGames(ctx, msg, rest)
	case "suggestions":
		b.dispatchSuggestions(msg, rest)
	case "":
		// Bare prefix, nothing to do.
	default:
		b.say(msg.ChannelID, "Unknown command. Type `"+b.prefix+"help` for the command list.")
	}
}

func (b *Bot) dispatchGames(ctx context.Context, msg domain.Message, rest string) {
	sub, arg := splitWord(rest)
	switch strings.ToLower(sub) {
	case "":
		b.handleGamesList(msg)
	case "add":
		b.handleGamesAdd(ctx, msg, arg)
	case "remove":
		b.handleGamesRemove(msg, arg)
	case "suggest":
		b.handleSuggest(ctx, msg, arg)
	default:
		b.say(msg.ChannelID, "Usage: `"+b.prefix+"games [add|remove|suggest] ...`")
	}
}

func (b *Bot) dispatchSuggestions(msg domain.Message, rest string) {
	sub, arg := splitWord(rest)
	switch strings.ToLower(sub) {
	case "":
		b.handleSuggestionsList(msg)
	case "remove":
		b.handleSuggestionsRemove(msg, arg)
	case "clear":
		b.handleSuggestionsClear(msg)
	default:
		b.say(msg.ChannelID, "Usage: `"+b.prefix+"suggestions [remove <n>|clear]`")
	}
}

// isAdmin reports whether the author may mutate the game list.
func (b *Bot) isAdmin(msg domain.Message) bool {
	return b.adminRoleID != "" && msg.HasRole(b.adminRoleID)
}

func (b *Bot) requireAdmin(msg domain.Message) bool {
	if b.isAdmin(msg) {
		return true
	}
	b.say(msg.ChannelID, msg.AuthorName+", only admins are allowed to use this command.")
	return false
}

// say sends text to a channel, logging delivery failures instead of
// propagating them; a dropped reply must not abort the command.
func (b *Bot) say(channelID, text string) {
	if err := b.sender.Send(channelID, text); err != nil {
		b.log.Warn("failed to send reply",
			logger.String("channel_id", channelID),
			logger.Error(err))
	}
}

// conversation binds the dialog engine to one originating channel.
type conversation struct {
	bot       *Bot
	channelID string
}

func (c conversation) Prompt(_ context.Context, text string) error {
	return c.bot.sender.Send(c.channelID, text)
}

func (c conversation) AwaitReply(ctx context.Context, match func(domain.Message) bool) (domain.Message, error) {
	return c.bot.waiters.Await(ctx, match)
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
