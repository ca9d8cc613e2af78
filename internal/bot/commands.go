package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jujucrew/jubot/internal/dialog"
	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/store/jsonfile"
)

func (b *Bot) handleGamesList(msg domain.Message) {
	games := b.store.Games()
	if len(games) == 0 {
		b.say(msg.ChannelID, "The game list is empty.")
		return
	}

	entries := make([]string, 0, len(games))
	for _, g := range games {
		entries = append(entries, g.Name+"\n"+g.StoreLink)
	}
	b.say(msg.ChannelID, strings.Join(entries, "\n\n"))
}

func (b *Bot) handleGamesAdd(ctx context.Context, msg domain.Message, query string) {
	if !b.requireAdmin(msg) {
		return
	}

	res := b.disambiguate(ctx, dialog.OpAdd, msg, query)
	if res.Status != dialog.StatusResolved {
		b.reportOutcome(msg, query, res.Status)
		return
	}

	// The list may have changed during the selection wait; AddGame
	// re-checks the duplicate under the store lock.
	err := b.store.AddGame(domain.FromCandidate(res.Candidate))
	switch {
	case errors.Is(err, jsonfile.ErrDuplicateGame):
		b.say(msg.ChannelID, fmt.Sprintf(
			"Steam app id %d is already in the game list. It cannot be added.", res.Candidate.AppID))
	case err != nil:
		b.log.Error("failed to persist game",
			logger.Int("app_id", res.Candidate.AppID),
			logger.Error(err))
		b.say(msg.ChannelID, "Something went wrong saving the game list. Try again.")
	default:
		b.say(msg.ChannelID, res.Candidate.Name+" has been added to the game list!")
		b.log.Info("game added",
			logger.Int("app_id", res.Candidate.AppID),
			logger.String("name", res.Candidate.Name),
			logger.String("by", msg.AuthorName),
			logger.String("by_id", msg.AuthorID))
	}
}

func (b *Bot) handleGamesRemove(msg domain.Message, arg string) {
	if !b.requireAdmin(msg) {
		return
	}

	appID, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		b.say(msg.ChannelID, "Usage: `"+b.prefix+"games remove <steam app id>`")
		return
	}

	removed, err := b.store.RemoveGame(appID)
	if errors.Is(err, jsonfile.ErrGameNotFound) {
		b.say(msg.ChannelID, fmt.Sprintf(
			"Steam app id %d is not in the game list. It cannot be removed.", appID))
		return
	}
	if err != nil {
		b.log.Error("failed to remove game", logger.Int("app_id", appID), logger.Error(err))
		b.say(msg.ChannelID, "Something went wrong saving the game list. Try again.")
		return
	}

	b.say(msg.ChannelID, removed.Name+" has been removed from the game list!")
	b.log.Info("game removed",
		logger.Int("app_id", appID),
		logger.String("name", removed.Name),
		logger.String("by", msg.AuthorName),
		logger.String("by_id", msg.AuthorID))
}

func (b *Bot) handleSuggest(ctx context.Context, msg domain.Message, query string) {
	res := b.disambiguate(ctx, dialog.OpSuggest, msg, query)
	if res.Status != dialog.StatusResolved {
		b.reportOutcome(msg, query, res.Status)
		return
	}

	rec := domain.SuggestionRecord{
		AppID:           res.Candidate.AppID,
		Name:            res.Candidate.Name,
		StoreLink:       res.Candidate.StoreLink,
		SuggestedByID:   msg.AuthorID,
		SuggestedByName: msg.AuthorName,
		SuggestedAt:     time.Now().UTC(),
	}

	err := b.store.AddSuggestion(rec)
	switch {
	case errors.Is(err, jsonfile.ErrDuplicateSuggestion):
		b.say(msg.ChannelID, res.Candidate.Name+" has already been suggested.")
	case err != nil:
		b.log.Error("failed to persist suggestion",
			logger.Int("app_id", rec.AppID),
			logger.Error(err))
		b.say(msg.ChannelID, "Something went wrong saving the suggestion. Try again.")
	default:
		b.say(msg.ChannelID, "Thanks! "+res.Candidate.Name+" has been added to the suggestions.")
		b.log.Info("game suggested",
			logger.Int("app_id", rec.AppID),
			logger.String("name", rec.Name),
			logger.String("by", msg.AuthorName),
			logger.String("by_id", msg.AuthorID))
	}
}

func (b *Bot) handleSuggestionsList(msg domain.Message) {
	suggestions := b.store.Suggestions()
	if len(suggestions) == 0 {
		b.say(msg.ChannelID, "There are no suggestions right now.")
		return
	}

	lines := make([]string, 0, len(suggestions))
	for i, s := range suggestions {
		lines = append(lines, fmt.Sprintf(
			"%d. %s (App ID: %d) suggested by %s", i+1, s.Name, s.AppID, s.SuggestedByName))
	}
	b.say(msg.ChannelID, strings.Join(lines, "\n"))
}

func (b *Bot) handleSuggestionsRemove(msg domain.Message, arg string) {
	if !b.requireAdmin(msg) {
		return
	}

	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		b.say(msg.ChannelID, "Usage: `"+b.prefix+"suggestions remove <number>`")
		return
	}

	removed, err := b.store.RemoveSuggestionAt(index)
	if errors.Is(err, jsonfile.ErrBadIndex) {
		b.say(msg.ChannelID, fmt.Sprintf("There is no suggestion number %d.", index))
		return
	}
	if err != nil {
		b.log.Error("failed to remove suggestion", logger.Int("index", index), logger.Error(err))
		b.say(msg.ChannelID, "Something went wrong saving the suggestions. Try again.")
		return
	}

	b.say(msg.ChannelID, removed.Name+" has been removed from the suggestions.")
}

func (b *Bot) handleSuggestionsClear(msg domain.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	if err := b.store.ClearSuggestions(); err != nil {
		b.log.Error("failed to clear suggestions", logger.Error(err))
		b.say(msg.ChannelID, "Something went wrong saving the suggestions. Try again.")
		return
	}
	b.say(msg.ChannelID, "All suggestions have been cleared.")
}

func (b *Bot) disambiguate(ctx context.Context, op dialog.Op, msg domain.Message, query string) dialog.Result {
	req := dialog.Request{
		Op:        op,
		Query:     query,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		UserID:    msg.AuthorID,
	}
	return b.engine.Disambiguate(ctx, req, conversation{bot: b, channelID: msg.ChannelID})
}

// reportOutcome renders every non-resolved engine outcome as a reply.
func (b *Bot) reportOutcome(msg domain.Message, query string, status dialog.Status) {
	switch status {
	case dialog.StatusInvalidInput:
		b.say(msg.ChannelID, "Please provide a Steam app id or game name.")
	case dialog.StatusNotFound:
		b.say(msg.ChannelID, fmt.Sprintf(
			"No Steam results found for '%s'. Try a different name or use a Steam app id.",
			strings.TrimSpace(query)))
	case dialog.StatusAlreadyPending:
		b.say(msg.ChannelID, "You already have a pending game selection in this channel. Reply with a number or 'cancel'.")
	case dialog.StatusCancelled:
		b.say(msg.ChannelID, "Game selection canceled.")
	case dialog.StatusTimedOut:
		b.say(msg.ChannelID, fmt.Sprintf(
			"Selection timed out after %.0f seconds. Run the command again.",
			b.engine.Timeout().Seconds()))
	}
}

func (b *Bot) helpText() string {
	p := b.prefix
	return strings.Join([]string{
		"**JuBot commands**",
		"`" + p + "ping` - check that the bot responds",
		"`" + p + "games` - show the game list",
		"`" + p + "games add <id|name>` - add a game (admins only)",
		"`" + p + "games remove <id>` - remove a game (admins only)",
		"`" + p + "games suggest <id|name>` - suggest a game for the list",
		"`" + p + "suggestions` - show the suggestion list",
		"`" + p + "suggestions remove <n>` - remove a suggestion (admins only)",
		"`" + p + "suggestions clear` - clear all suggestions (admins only)",
		"`" + p + "help` - this message",
	}, "\n")
}
