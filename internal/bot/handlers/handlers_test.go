package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/edgard/statsbot/internal/backup"
	"github.com/edgard/statsbot/internal/bot/handlers"
	"github.com/edgard/statsbot/internal/config"
	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/stats"
)

const groupID int64 = -1001

var (
	alice = &models.User{ID: 1, Username: "alice", FirstName: "Alice"}
	bob   = &models.User{ID: 2, FirstName: "bob"}
)

type fakeSender struct {
	mu         sync.Mutex
	messages   []*bot.SendMessageParams
	photos     []*bot.SendPhotoParams
	actions    []models.ChatAction
	sent       []string
	privateErr error
}

func (f *fakeSender) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.privateErr != nil && p.ChatID != groupID {
		return nil, f.privateErr
	}
	f.messages = append(f.messages, p)
	f.sent = append(f.sent, "text")
	return &models.Message{}, nil
}

func (f *fakeSender) SendChatAction(_ context.Context, p *bot.SendChatActionParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, p.Action)
	return true, nil
}

func (f *fakeSender) SendPhoto(_ context.Context, p *bot.SendPhotoParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, p)
	f.sent = append(f.sent, "photo")
	return &models.Message{}, nil
}

type fixture struct {
	db     *sqlx.DB
	store  database.Store
	deps   handlers.HandlerDeps
	nextID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "chat.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)
	require.NoError(t, store.SaveUserNames(ctx, []database.UserNameUpdate{
		{UserID: alice.ID, Username: "@alice", DisplayName: "Alice", NewIdentity: true},
	}))
	runner, err := stats.NewRunner(ctx, logger, db, time.UTC)
	require.NoError(t, err)

	return &fixture{
		db:    db,
		store: store,
		deps: handlers.HandlerDeps{
			Logger: logger,
			Config: &config.Config{
				Telegram: config.TelegramConfig{ChatID: groupID, StatsCommands: []string{"stats", "s"}},
				Messages: config.DefaultMessages,
			},
			Store:  store,
			Runner: runner,
		},
	}
}

func (f *fixture) update(from *models.User, text string) *models.Update {
	f.nextID++
	return &models.Update{Message: &models.Message{
		ID:   f.nextID,
		Date: int(time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC).Unix()) + f.nextID*60,
		Chat: models.Chat{ID: groupID},
		From: from,
		Text: text,
	}}
}

// serve runs the update through the recorder and then the stats handler the
// way the registered handler chain does.
func (f *fixture) serve(t *testing.T, s handlers.Sender, u *models.Update) {
	t.Helper()
	handlers.Recorder(f.deps)(func(context.Context, *bot.Bot, *models.Update) {})(context.Background(), nil, u)
	handlers.StatsHandlerFor(f.deps).Handle(context.Background(), s, u)
}

func TestStatsRepliesWithTable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for range 3 {
		f.serve(t, &fakeSender{}, f.update(alice, "hello"))
	}

	s := &fakeSender{}
	f.serve(t, s, f.update(alice, "/stats counts"))

	require.Len(t, s.messages, 1)
	reply := s.messages[0]
	assert.Equal(t, groupID, reply.ChatID)
	assert.Equal(t, models.ParseModeMarkdown, reply.ParseMode)
	assert.Contains(t, reply.Text, "@alice")
	require.NotNil(t, reply.ReplyParameters)
	assert.Empty(t, s.photos)
	require.NotEmpty(t, s.actions)
	assert.Equal(t, models.ChatActionTyping, s.actions[0])
}

func TestStatsSendsChartWithCaption(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.serve(t, &fakeSender{}, f.update(alice, "hello"))

	s := &fakeSender{}
	f.serve(t, s, f.update(alice, "/s hours -me"))

	require.Len(t, s.photos, 1)
	assert.Equal(t, "`hours -me`", s.photos[0].Caption)
	assert.Equal(t, groupID, s.photos[0].ChatID)
}

func TestStatsSendsTextBeforeChart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.serve(t, &fakeSender{}, f.update(alice, "hello"))

	s := &fakeSender{}
	f.serve(t, s, f.update(alice, "/stats days"))

	assert.Equal(t, []string{"text", "photo"}, s.sent)
	assert.Equal(t, "`days`", s.photos[0].Caption)
}

func TestStatsUsageGoesPrivate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := &fakeSender{}
	f.serve(t, s, f.update(alice, "/stats nonsense"))

	require.Len(t, s.messages, 1)
	assert.Equal(t, alice.ID, s.messages[0].ChatID)
	assert.True(t, strings.HasPrefix(s.messages[0].Text, "```"))
}

func TestStatsUsageFallsBackToChat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := &fakeSender{privateErr: fmt.Errorf("%w, bot was blocked by the user", bot.ErrorForbidden)}
	f.serve(t, s, f.update(alice, `/stats counts -lquery "open`))

	require.Len(t, s.messages, 1)
	assert.Equal(t, groupID, s.messages[0].ChatID)
	require.NotNil(t, s.messages[0].ReplyParameters)
}

func TestStatsOtherPrivateErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	s := &fakeSender{privateErr: fmt.Errorf("%w, chat not found", bot.ErrorBadRequest)}
	f.serve(t, s, f.update(alice, "/stats user"))

	assert.Empty(t, s.messages)
}

func TestRecorderStoresMonitoredChatOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dir := t.TempDir()
	appender, err := backup.NewAppender(dir)
	require.NoError(t, err)
	f.deps.Backup = appender
	rec := handlers.Recorder(f.deps)

	called := 0
	next := func(context.Context, *bot.Bot, *models.Update) { called++ }
	ctx := context.Background()

	rec(next)(ctx, nil, f.update(bob, "first"))
	other := f.update(bob, "elsewhere")
	other.Message.Chat.ID = 42
	rec(next)(ctx, nil, other)

	edit := f.update(bob, "first, edited")
	edit.Message.ID = 1
	rec(next)(ctx, nil, &models.Update{EditedMessage: edit.Message})

	join := f.update(alice, "")
	join.Message.NewChatMembers = []models.User{*bob}
	rec(next)(ctx, nil, join)

	assert.Equal(t, 4, called)

	var texts []string
	require.NoError(t, f.db.Select(&texts, `SELECT coalesce(text, '') FROM messages ORDER BY message_id`))
	assert.Equal(t, []string{"first, edited", ""}, texts)

	var joined int64
	require.NoError(t, f.db.Get(&joined, `SELECT user_id FROM user_events WHERE event = 'joined'`))
	assert.Equal(t, bob.ID, joined)

	edited, err := os.ReadFile(filepath.Join(dir, backup.StreamEditedMessages+backup.FileExt))
	require.NoError(t, err)
	assert.Equal(t, "first, edited", gjson.GetBytes(edited, "text").String())
}

func TestKnownUsersOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	mw := handlers.KnownUsersOnly(f.deps)

	var seen []int64
	next := func(_ context.Context, _ *bot.Bot, u *models.Update) { seen = append(seen, u.Message.From.ID) }

	mw(next)(context.Background(), nil, f.update(alice, "/stats"))
	mw(next)(context.Background(), nil, f.update(bob, "/stats"))
	mw(next)(context.Background(), nil, &models.Update{})

	assert.Equal(t, []int64{alice.ID}, seen)
}

func TestHelpText(t *testing.T) {
	t.Parallel()

	text := handlers.HelpText("Chat statistics")
	assert.True(t, strings.HasPrefix(text, "Chat statistics\n\n"))
	for _, name := range stats.Names() {
		assert.Contains(t, text, name)
	}
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	registered := handlers.RegisterAllCommands(f.deps)

	for _, cmd := range []string{"/help", "/chatid", "/stats", "/s"} {
		h, ok := registered[cmd]
		require.True(t, ok, cmd)
		assert.Equal(t, strings.TrimPrefix(cmd, "/"), h.Pattern)
	}
	assert.Len(t, registered["/stats"].Middleware, 1)
	assert.Empty(t, registered["/help"].Middleware)
}

func TestCaller(t *testing.T) {
	t.Parallel()

	assert.Equal(t, stats.Identity{ID: 1, Username: "@alice", DisplayName: "Alice"}, handlers.Caller(alice))
	assert.Equal(t,
		stats.Identity{ID: 3, Username: "Carol Smith", DisplayName: "Carol Smith"},
		handlers.Caller(&models.User{ID: 3, FirstName: "Carol", LastName: "Smith"}))
}
