package database

// Message is one row of the chat event log. Dates are stored as unix seconds.
type Message struct {
	ID                   int64   `db:"id"                      json:"-"`
	MessageID            int64   `db:"message_id"              json:"message_id"`
	Date                 int64   `db:"date"                    json:"date"`
	FromUser             *int64  `db:"from_user"               json:"from_user"`
	ForwardFromMessageID *int64  `db:"forward_from_message_id" json:"forward_from_message_id"`
	ForwardFrom          *int64  `db:"forward_from"            json:"forward_from"`
	ForwardFromChat      *int64  `db:"forward_from_chat"       json:"forward_from_chat"`
	Caption              *string `db:"caption"                 json:"caption"`
	Text                 *string `db:"text"                    json:"text"`
	StickerSetName       *string `db:"sticker_set_name"        json:"sticker_set_name"`
	NewChatTitle         *string `db:"new_chat_title"          json:"new_chat_title"`
	ReplyToMessage       *int64  `db:"reply_to_message"        json:"reply_to_message"`
	FileID               *string `db:"file_id"                 json:"file_id"`
	Type                 string  `db:"type"                    json:"type"`
}

// User event kinds.
const (
	EventJoined = "joined"
	EventLeft   = "left"
)

// UserEvent records a membership change in the chat.
type UserEvent struct {
	ID        int64  `db:"id"         json:"-"`
	MessageID *int64 `db:"message_id" json:"message_id"`
	UserID    int64  `db:"user_id"    json:"user_id"`
	Date      int64  `db:"date"       json:"date"`
	Event     string `db:"event"      json:"event"`
}

// UserName is one observed identity snapshot of a user.
type UserName struct {
	ID          int64  `db:"id"`
	UserID      int64  `db:"user_id"`
	Date        int64  `db:"date"`
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
}

// UserNameUpdate describes one identity change found by the refresh job.
// NewIdentity inserts a new history row; otherwise only the username of the
// latest row is rewritten.
type UserNameUpdate struct {
	UserID      int64
	Username    string
	DisplayName string
	NewIdentity bool
}
