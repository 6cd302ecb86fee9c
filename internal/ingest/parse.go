// Package ingest turns Telegram messages into chat log rows.
package ingest

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/statsbot/internal/database"
)

// Message type tags, in classification order. The first present field wins.
const (
	TypeText           = "text"
	TypeAnimation      = "animation"
	TypeAudio          = "audio"
	TypeDocument       = "document"
	TypeGame           = "game"
	TypePhoto          = "photo"
	TypeSticker        = "sticker"
	TypeVideo          = "video"
	TypeVideoNote      = "video_note"
	TypeVoice          = "voice"
	TypeLocation       = "location"
	TypePoll           = "poll"
	TypeNewChatTitle   = "new_chat_title"
	TypeNewChatPhoto   = "new_chat_photo"
	TypePinnedMessage  = "pinned_message"
	TypeNewChatMembers = "new_chat_members"
	TypeLeftChatMember = "left_chat_member"
	// TypeOther tags service messages the bot does not classify.
	TypeOther = "other"
)

// Parse converts msg into a message row and the membership events it carries.
// It returns nil for a nil message.
func Parse(msg *models.Message) (*database.Message, []database.UserEvent) {
	if msg == nil {
		return nil, nil
	}

	row := &database.Message{
		MessageID:    int64(msg.ID),
		Date:         int64(msg.Date),
		Caption:      optionalString(msg.Caption),
		Text:         optionalString(msg.Text),
		NewChatTitle: optionalString(msg.NewChatTitle),
		Type:         Classify(msg),
	}

	if msg.From != nil {
		row.FromUser = optionalInt(msg.From.ID)
	}
	if msg.ReplyToMessage != nil {
		row.ReplyToMessage = optionalInt(int64(msg.ReplyToMessage.ID))
	}
	applyForwardOrigin(row, msg.ForwardOrigin)

	var events []database.UserEvent
	messageID := int64(msg.ID)

	switch row.Type {
	case TypeAnimation:
		row.FileID = optionalString(msg.Animation.FileID)
	case TypeAudio:
		row.FileID = optionalString(msg.Audio.FileID)
	case TypeDocument:
		row.FileID = optionalString(msg.Document.FileID)
	case TypeSticker:
		row.FileID = optionalString(msg.Sticker.FileID)
		row.StickerSetName = optionalString(msg.Sticker.SetName)
	case TypeNewChatMembers:
		for _, member := range msg.NewChatMembers {
			events = append(events, database.UserEvent{
				MessageID: &messageID,
				UserID:    member.ID,
				Date:      row.Date,
				Event:     database.EventJoined,
			})
		}
	case TypeLeftChatMember:
		events = append(events, database.UserEvent{
			MessageID: &messageID,
			UserID:    msg.LeftChatMember.ID,
			Date:      row.Date,
			Event:     database.EventLeft,
		})
	}

	return row, events
}

// Classify returns the type tag of msg.
func Classify(msg *models.Message) string {
	switch {
	case msg.Text != "":
		return TypeText
	case isSet(msg.Animation):
		return TypeAnimation
	case isSet(msg.Audio):
		return TypeAudio
	case isSet(msg.Document):
		return TypeDocument
	case isSet(msg.Game):
		return TypeGame
	case len(msg.Photo) > 0:
		return TypePhoto
	case isSet(msg.Sticker):
		return TypeSticker
	case isSet(msg.Video):
		return TypeVideo
	case isSet(msg.VideoNote):
		return TypeVideoNote
	case isSet(msg.Voice):
		return TypeVoice
	case isSet(msg.Location):
		return TypeLocation
	case isSet(msg.Poll):
		return TypePoll
	case msg.NewChatTitle != "":
		return TypeNewChatTitle
	case len(msg.NewChatPhoto) > 0:
		return TypeNewChatPhoto
	case isSet(msg.PinnedMessage):
		return TypePinnedMessage
	case len(msg.NewChatMembers) > 0:
		return TypeNewChatMembers
	case isSet(msg.LeftChatMember):
		return TypeLeftChatMember
	default:
		return TypeOther
	}
}

// applyForwardOrigin fills the forward columns. Channel posts also carry the
// original message id.
func applyForwardOrigin(row *database.Message, origin *models.MessageOrigin) {
	if origin == nil {
		return
	}
	switch {
	case origin.MessageOriginUser != nil:
		row.ForwardFrom = optionalInt(origin.MessageOriginUser.SenderUser.ID)
	case origin.MessageOriginChat != nil:
		row.ForwardFromChat = optionalInt(origin.MessageOriginChat.SenderChat.ID)
	case origin.MessageOriginChannel != nil:
		row.ForwardFromChat = optionalInt(origin.MessageOriginChannel.Chat.ID)
		row.ForwardFromMessageID = optionalInt(int64(origin.MessageOriginChannel.MessageID))
	}
}

func isSet[T comparable](v T) bool {
	var zero T
	return v != zero
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(v int64) *int64 {
	return &v
}
