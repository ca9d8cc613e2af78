package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jujucrew/jubot/internal/dialog"
	"github.com/jujucrew/jubot/internal/domain"
	"github.com/jujucrew/jubot/internal/logger"
	"github.com/jujucrew/jubot/internal/store/jsonfile"
)

const adminRole = "role-admin"

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ string, content string) error {
	f.mu.Lock()
	f.sent = append(f.sent, content)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeSender) contains(substr string) bool {
	for _, m := range f.messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type fakeCatalog struct {
	apps    map[int]domain.Candidate
	results []domain.Candidate
}

func (f *fakeCatalog) AppDetails(_ context.Context, appID int) (domain.Candidate, error) {
	if c, ok := f.apps[appID]; ok {
		return c, nil
	}
	return domain.Candidate{}, errors.New("no such app")
}

func (f *fakeCatalog) Search(_ context.Context, _ string, limit int) ([]domain.Candidate, error) {
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func kenshi() domain.Candidate {
	return domain.Candidate{AppID: 233860, Name: "Kenshi", StoreLink: "https://store.steampowered.com/app/233860/"}
}

func newTestBot(t *testing.T, catalog dialog.Catalog) (*Bot, *fakeSender, *jsonfile.Store) {
	t.Helper()
	store, err := jsonfile.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	engine := dialog.NewEngine(catalog, dialog.NewRegistry(), time.Second, 5, logger.Nop())
	sender := &fakeSender{}
	b := New(Options{Prefix: ">>", AdminRoleID: adminRole}, engine, store, sender, logger.Nop())
	return b, sender, store
}

func adminMsg(content string) domain.Message {
	return domain.Message{
		ID: "m1", GuildID: "g1", ChannelID: "c1",
		AuthorID: "u1", AuthorName: "juju", RoleIDs: []string{adminRole},
		Content: content,
	}
}

func memberMsg(content string) domain.Message {
	return domain.Message{
		ID: "m2", GuildID: "g1", ChannelID: "c1",
		AuthorID: "u2", AuthorName: "fan",
		Content: content,
	}
}

// dispatchAndWait runs one command synchronously through dispatch.
func dispatchAndWait(b *Bot, msg domain.Message) {
	b.dispatch(context.Background(), msg)
}

func TestPing(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	dispatchAndWait(b, memberMsg(">>ping"))
	assert.True(t, sender.contains("Pong!"))
}

func TestHelpListsCommands(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	dispatchAndWait(b, memberMsg(">>help"))
	require.Len(t, sender.messages(), 1)
	help := sender.messages()[0]
	for _, cmd := range []string{">>ping", ">>games add", ">>games remove", ">>games suggest", ">>suggestions"} {
		assert.Contains(t, help, cmd)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	dispatchAndWait(b, memberMsg(">>frobnicate"))
	assert.True(t, sender.contains("Unknown command"))
}

func TestUnprefixedMessagesAreIgnored(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	b.HandleMessage(context.Background(), memberMsg("just chatting"))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sender.messages())
}

func TestGamesListEmptyAndPopulated(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{})

	dispatchAndWait(b, memberMsg(">>games"))
	assert.True(t, sender.contains("The game list is empty."))

	require.NoError(t, store.AddGame(domain.FromCandidate(kenshi())))
	dispatchAndWait(b, memberMsg(">>games"))
	assert.True(t, sender.contains("Kenshi\nhttps://store.steampowered.com/app/233860/"))
}

func TestGamesAddRequiresAdmin(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{apps: map[int]domain.Candidate{233860: kenshi()}})

	dispatchAndWait(b, memberMsg(">>games add 233860"))

	assert.True(t, sender.contains("only admins are allowed"))
	assert.Empty(t, store.Games())
}

func TestGamesAddByID(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{apps: map[int]domain.Candidate{233860: kenshi()}})

	dispatchAndWait(b, adminMsg(">>games add 233860"))

	assert.True(t, sender.contains("Kenshi has been added to the game list!"))
	games := store.Games()
	require.Len(t, games, 1)
	assert.Equal(t, 233860, games[0].AppID)
}

func TestGamesAddDuplicate(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{apps: map[int]domain.Candidate{233860: kenshi()}})
	require.NoError(t, store.AddGame(domain.FromCandidate(kenshi())))

	dispatchAndWait(b, adminMsg(">>games add 233860"))

	assert.True(t, sender.contains("already in the game list"))
	assert.Len(t, store.Games(), 1)
}

func TestGamesAddMissingQuery(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	dispatchAndWait(b, adminMsg(">>games add"))
	assert.True(t, sender.contains("Please provide a Steam app id or game name."))
}

func TestGamesAddNotFound(t *testing.T) {
	b, sender, _ := newTestBot(t, &fakeCatalog{})
	dispatchAndWait(b, adminMsg(">>games add Unknown Game"))
	assert.True(t, sender.contains("No Steam results found for 'Unknown Game'."))
}

func TestGamesAddWithSelection(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.Candidate{
		kenshi(),
		{AppID: 400, Name: "Kenshi OST", StoreLink: "https://store.steampowered.com/app/400/"},
	}}
	b, sender, store := newTestBot(t, catalog)
	ctx := context.Background()

	b.HandleMessage(ctx, adminMsg(">>games add Kenshi"))
	require.Eventually(t, func() bool { return b.waiters.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, sender.contains("Reply with a number (1-2) or 'cancel'"))

	// Unrelated chatter does not consume or cancel the wait.
	b.HandleMessage(ctx, adminMsg("what do you all think?"))
	require.Equal(t, 1, b.waiters.Len())

	b.HandleMessage(ctx, adminMsg("2"))
	require.Eventually(t, func() bool { return len(store.Games()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 400, store.Games()[0].AppID)
	assert.True(t, sender.contains("Kenshi OST has been added to the game list!"))
}

func TestGamesAddSelectionCancel(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.Candidate{
		kenshi(),
		{AppID: 400, Name: "Kenshi OST", StoreLink: "https://store.steampowered.com/app/400/"},
	}}
	b, sender, store := newTestBot(t, catalog)
	ctx := context.Background()

	b.HandleMessage(ctx, adminMsg(">>games add Kenshi"))
	require.Eventually(t, func() bool { return b.waiters.Len() == 1 }, time.Second, 5*time.Millisecond)

	b.HandleMessage(ctx, adminMsg("cancel"))
	require.Eventually(t, func() bool { return b.waiters.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return sender.contains("Game selection canceled.") },
		time.Second, 5*time.Millisecond)
	assert.Empty(t, store.Games())
}

func TestGamesRemove(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{})
	require.NoError(t, store.AddGame(domain.FromCandidate(kenshi())))

	dispatchAndWait(b, adminMsg(">>games remove 233860"))
	assert.True(t, sender.contains("Kenshi has been removed from the game list!"))
	assert.Empty(t, store.Games())

	dispatchAndWait(b, adminMsg(">>games remove 233860"))
	assert.True(t, sender.contains("is not in the game list"))

	dispatchAndWait(b, adminMsg(">>games remove not-a-number"))
	assert.True(t, sender.contains("Usage:"))
}

func TestSuggestIsOpenToEveryone(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{apps: map[int]domain.Candidate{233860: kenshi()}})

	dispatchAndWait(b, memberMsg(">>games suggest 233860"))

	assert.True(t, sender.contains("has been added to the suggestions"))
	suggestions := store.Suggestions()
	require.Len(t, suggestions, 1)
	assert.Equal(t, "fan", suggestions[0].SuggestedByName)
	assert.Equal(t, "u2", suggestions[0].SuggestedByID)
	assert.False(t, suggestions[0].SuggestedAt.IsZero())
}

func TestSuggestDuplicateRecheckedAtWrite(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{apps: map[int]domain.Candidate{233860: kenshi()}})
	require.NoError(t, store.AddSuggestion(domain.SuggestionRecord{AppID: 233860, Name: "Kenshi"}))

	dispatchAndWait(b, memberMsg(">>games suggest 233860"))

	assert.True(t, sender.contains("has already been suggested"))
	assert.Len(t, store.Suggestions(), 1)
}

func TestSuggestionsListRemoveClear(t *testing.T) {
	b, sender, store := newTestBot(t, &fakeCatalog{})

	dispatchAndWait(b, memberMsg(">>suggestions"))
	assert.True(t, sender.contains("There are no suggestions right now."))

	require.NoError(t, store.AddSuggestion(domain.SuggestionRecord{AppID: 1, Name: "First", SuggestedByName: "fan"}))
	require.NoError(t, store.AddSuggestion(domain.SuggestionRecord{AppID: 2, Name: "Second", SuggestedByName: "juju"}))

	dispatchAndWait(b, memberMsg(">>suggestions"))
	assert.True(t, sender.contains("1. First (App ID: 1) suggested by fan"))
	assert.True(t, sender.contains("2. Second (App ID: 2) suggested by juju"))

	// Removal is admin-only and 1-indexed.
	dispatchAndWait(b, memberMsg(">>suggestions remove 1"))
	assert.Len(t, store.Suggestions(), 2)

	dispatchAndWait(b, adminMsg(">>suggestions remove 1"))
	assert.True(t, sender.contains("First has been removed from the suggestions."))
	require.Len(t, store.Suggestions(), 1)

	dispatchAndWait(b, adminMsg(">>suggestions remove 7"))
	assert.True(t, sender.contains("There is no suggestion number 7."))

	dispatchAndWait(b, adminMsg(">>suggestions clear"))
	assert.True(t, sender.contains("All suggestions have been cleared."))
	assert.Empty(t, store.Suggestions())
}

func TestAlreadyPendingSelection(t *testing.T) {
	catalog := &fakeCatalog{results: []domain.Candidate{
		kenshi(),
		{AppID: 400, Name: "Kenshi OST", StoreLink: "https://store.steampowered.com/app/400/"},
	}}
	b, sender, _ := newTestBot(t, catalog)
	ctx := context.Background()

	b.HandleMessage(ctx, adminMsg(">>games add Kenshi"))
	require.Eventually(t, func() bool { return b.waiters.Len() == 1 }, time.Second, 5*time.Millisecond)

	dispatchAndWait(b, adminMsg(">>games add Kenshi"))
	assert.True(t, sender.contains("You already have a pending game selection"))

	// Resolve the first selection so its goroutine exits.
	b.HandleMessage(ctx, adminMsg("cancel"))
	require.Eventually(t, func() bool { return b.waiters.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSplitWord(t *testing.T) {
	tests := []struct {
		in   string
		word string
		rest string
	}{
		{in: "", word: "", rest: ""},
		{in: "games", word: "games", rest: ""},
		{in: "games add Kenshi", word: "games", rest: "add Kenshi"},
		{in: "  add   Project Zomboid  ", word: "add", rest: "Project Zomboid"},
	}
	for _, tt := range tests {
		word, rest := splitWord(tt.in)
		assert.Equal(t, tt.word, word, "input %q", tt.in)
		assert.Equal(t, tt.rest, rest, "input %q", tt.in)
	}
}
