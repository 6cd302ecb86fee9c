package ingest_test

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/ingest"
)

func ptr[T any](v T) *T { return &v }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{"text", models.Message{Text: "hi"}, ingest.TypeText},
		{"sticker", models.Message{Sticker: &models.Sticker{FileID: "s"}}, ingest.TypeSticker},
		{"photo with caption", models.Message{Photo: []models.PhotoSize{{FileID: "p"}}, Caption: "look"}, ingest.TypePhoto},
		{"voice", models.Message{Voice: &models.Voice{FileID: "v"}}, ingest.TypeVoice},
		{"video note", models.Message{VideoNote: &models.VideoNote{FileID: "n"}}, ingest.TypeVideoNote},
		{"title", models.Message{NewChatTitle: "new"}, ingest.TypeNewChatTitle},
		{"members", models.Message{NewChatMembers: []models.User{{ID: 1}}}, ingest.TypeNewChatMembers},
		{"left", models.Message{LeftChatMember: &models.User{ID: 1}}, ingest.TypeLeftChatMember},
		{"unclassified", models.Message{}, ingest.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ingest.Classify(&tt.msg))
		})
	}
}

func TestParseText(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		ID:             42,
		Date:           1700000000,
		From:           &models.User{ID: 7},
		Text:           "hello there",
		ReplyToMessage: &models.Message{ID: 40},
	}

	row, events := ingest.Parse(msg)
	require.NotNil(t, row)
	assert.Empty(t, events)

	want := &database.Message{
		MessageID:      42,
		Date:           1700000000,
		FromUser:       ptr(int64(7)),
		Text:           ptr("hello there"),
		ReplyToMessage: ptr(int64(40)),
		Type:           ingest.TypeText,
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSticker(t *testing.T) {
	t.Parallel()

	row, _ := ingest.Parse(&models.Message{
		ID:      1,
		Date:    1,
		From:    &models.User{ID: 3},
		Sticker: &models.Sticker{FileID: "file", SetName: "cats"},
	})
	require.NotNil(t, row)
	assert.Equal(t, ingest.TypeSticker, row.Type)
	assert.Equal(t, ptr("file"), row.FileID)
	assert.Equal(t, ptr("cats"), row.StickerSetName)
	assert.Nil(t, row.Text)
}

func TestParseForwardOrigin(t *testing.T) {
	t.Parallel()

	fromUser, _ := ingest.Parse(&models.Message{
		ID:   1,
		Date: 1,
		Text: "fwd",
		ForwardOrigin: &models.MessageOrigin{
			MessageOriginUser: &models.MessageOriginUser{SenderUser: models.User{ID: 99}},
		},
	})
	assert.Equal(t, ptr(int64(99)), fromUser.ForwardFrom)
	assert.Nil(t, fromUser.ForwardFromChat)

	fromChannel, _ := ingest.Parse(&models.Message{
		ID:   2,
		Date: 1,
		Text: "fwd",
		ForwardOrigin: &models.MessageOrigin{
			MessageOriginChannel: &models.MessageOriginChannel{Chat: models.Chat{ID: -100}, MessageID: 12},
		},
	})
	assert.Equal(t, ptr(int64(-100)), fromChannel.ForwardFromChat)
	assert.Equal(t, ptr(int64(12)), fromChannel.ForwardFromMessageID)
	assert.Nil(t, fromChannel.ForwardFrom)
}

func TestParseMembershipEvents(t *testing.T) {
	t.Parallel()

	row, events := ingest.Parse(&models.Message{
		ID:             5,
		Date:           100,
		From:           &models.User{ID: 1},
		NewChatMembers: []models.User{{ID: 2}, {ID: 3}},
	})
	require.NotNil(t, row)
	assert.Equal(t, ingest.TypeNewChatMembers, row.Type)

	id := int64(5)
	want := []database.UserEvent{
		{MessageID: &id, UserID: 2, Date: 100, Event: database.EventJoined},
		{MessageID: &id, UserID: 3, Date: 100, Event: database.EventJoined},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	_, left := ingest.Parse(&models.Message{ID: 6, Date: 200, LeftChatMember: &models.User{ID: 2}})
	require.Len(t, left, 1)
	assert.Equal(t, database.EventLeft, left[0].Event)
	assert.Equal(t, int64(2), left[0].UserID)
}

func TestParseNil(t *testing.T) {
	t.Parallel()

	row, events := ingest.Parse(nil)
	assert.Nil(t, row)
	assert.Nil(t, events)
}
