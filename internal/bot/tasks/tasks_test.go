package tasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/statsbot/internal/bot/tasks"
	"github.com/edgard/statsbot/internal/config"
	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/stats"
)

type fakeTelegram struct {
	me      *models.User
	members map[int64]string
}

func (f *fakeTelegram) GetMe(context.Context) (*models.User, error) {
	if f.me == nil {
		return nil, fmt.Errorf("%w, no bot", bot.ErrorUnauthorized)
	}
	return f.me, nil
}

func (f *fakeTelegram) GetChatMember(_ context.Context, p *bot.GetChatMemberParams) (*models.ChatMember, error) {
	raw, ok := f.members[p.UserID]
	if !ok {
		return nil, fmt.Errorf("%w, user not found", bot.ErrorBadRequest)
	}
	var m models.ChatMember
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newDeps(t *testing.T, tg tasks.Telegram) (tasks.TaskDeps, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "chat.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	store := database.NewStore(db, nil)
	runner, err := stats.NewRunner(ctx, nil, db, time.UTC)
	require.NoError(t, err)

	return tasks.TaskDeps{
		Logger:   discard(),
		Store:    store,
		Runner:   runner,
		Config:   &config.Config{Telegram: config.TelegramConfig{ChatID: -100}},
		Telegram: tg,
	}, db
}

func TestMemberIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want stats.Identity
		ok   bool
	}{
		{
			name: "top level user",
			raw:  `{"status":"member","user":{"id":1,"first_name":"Alice","username":"alice"}}`,
			want: stats.Identity{ID: 1, Username: "@alice", DisplayName: "Alice"},
			ok:   true,
		},
		{
			name: "nested variant",
			raw:  `{"Type":"administrator","Owner":null,"Administrator":{"status":"administrator","user":{"id":2,"first_name":"Bob","last_name":"Jones"}}}`,
			want: stats.Identity{ID: 2, Username: "Bob Jones", DisplayName: "Bob Jones"},
			ok:   true,
		},
		{name: "no user", raw: `{"status":"left"}`},
		{name: "garbage", raw: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tasks.MemberIdentity([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityUpdates(t *testing.T) {
	t.Parallel()

	known := map[int64]stats.Identity{
		1: {ID: 1, Username: "@alice", DisplayName: "Alice"},
		2: {ID: 2, Username: "@bob", DisplayName: "Bob"},
		3: {ID: 3, Username: "Carol", DisplayName: "Carol"},
	}
	fetched := map[int64]stats.Identity{
		1: {ID: 1, Username: "@alice", DisplayName: "Alice"},
		2: {ID: 2, Username: "@bobby", DisplayName: "Bob"},
		3: {ID: 3, Username: "Caroline", DisplayName: "Caroline"},
		4: {ID: 4, Username: "@dave", DisplayName: "Dave"},
	}

	want := []database.UserNameUpdate{
		{UserID: 2, Username: "@bobby", DisplayName: "Bob"},
		{UserID: 3, Username: "Caroline", DisplayName: "Caroline", NewIdentity: true},
		{UserID: 4, Username: "@dave", DisplayName: "Dave", NewIdentity: true},
	}
	if diff := cmp.Diff(want, tasks.IdentityUpdates(known, fetched)); diff != "" {
		t.Errorf("IdentityUpdates() mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshUsernamesTask(t *testing.T) {
	t.Parallel()

	tg := &fakeTelegram{members: map[int64]string{
		1: `{"status":"member","user":{"id":1,"is_bot":false,"first_name":"Alice","username":"alice"}}`,
	}}
	deps, _ := newDeps(t, tg)
	ctx := context.Background()

	for i, from := range []int64{1, 2} {
		id := from
		require.NoError(t, deps.Store.SaveMessage(ctx, &database.Message{
			MessageID: int64(i + 1), Date: 1000, FromUser: &id, Type: "text",
		}))
	}

	task := tasks.RegisterAllTasks(deps)["refresh_usernames"]
	require.NotNil(t, task)
	require.NoError(t, task(ctx))

	users := deps.Runner.Users()
	assert.Equal(t, stats.Identity{ID: 1, Username: "@alice", DisplayName: "Alice"}, users[1])
	_, known := users[2]
	assert.False(t, known, "senders Telegram does not know stay unknown")

	// A second run finds nothing to change.
	require.NoError(t, task(ctx))
	assert.Len(t, deps.Runner.Users(), 1)
}

func TestRefreshUsernamesWithoutChat(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t, &fakeTelegram{})
	deps.Config.Telegram.ChatID = 0
	assert.NoError(t, tasks.RegisterAllTasks(deps)["refresh_usernames"](context.Background()))
}

func TestCheckPrivacyTask(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t, &fakeTelegram{me: &models.User{ID: 9, Username: "statsbot"}})
	check := tasks.RegisterAllTasks(deps)["check_privacy"]
	assert.ErrorIs(t, check(context.Background()), tasks.ErrPrivacyMode)

	deps.Telegram = &fakeTelegram{me: &models.User{ID: 9, CanReadAllGroupMessages: true}}
	assert.NoError(t, tasks.RegisterAllTasks(deps)["check_privacy"](context.Background()))

	deps.Telegram = &fakeTelegram{}
	assert.ErrorIs(t, tasks.RegisterAllTasks(deps)["check_privacy"](context.Background()), bot.ErrorUnauthorized)
}

func TestSQLMaintenanceAndBackupTasks(t *testing.T) {
	t.Parallel()

	deps, _ := newDeps(t, &fakeTelegram{})
	registered := tasks.RegisterAllTasks(deps)

	assert.NoError(t, registered["sql_maintenance"](context.Background()))
	// No archiver configured: the upload is skipped.
	assert.NoError(t, registered["backup_upload"](context.Background()))
}
