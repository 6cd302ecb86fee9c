package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the write side of the chat log.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a new message record.
	SaveMessage(ctx context.Context, message *Message) error

	// UpdateMessage rewrites a stored message after an edit event.
	UpdateMessage(ctx context.Context, message *Message) error

	// SaveUserEvents appends membership events.
	SaveUserEvents(ctx context.Context, events []UserEvent) error

	// SaveUserNames applies identity changes found by the username refresh job.
	SaveUserNames(ctx context.Context, updates []UserNameUpdate) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts a new message record. A message already stored under the
// same (message_id, from_user) pair is left untouched.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.Type == "" {
		return errors.New("message must have a type")
	}
	if message.Date == 0 {
		return errors.New("message must have a non-zero date")
	}

	query := `
        INSERT INTO messages (message_id, date, from_user, forward_from_message_id, forward_from,
            forward_from_chat, caption, text, sticker_set_name, new_chat_title, reply_to_message, file_id, type)
        VALUES (:message_id, :date, :from_user, :forward_from_message_id, :forward_from,
            :forward_from_chat, :caption, :text, :sticker_set_name, :new_chat_title, :reply_to_message, :file_id, :type)
        ON CONFLICT (message_id, from_user) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to save message %d: %w", message.MessageID, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.DebugContext(ctx, "Message already stored", "message_id", message.MessageID)
		return nil
	}
	if id, err := result.LastInsertId(); err == nil {
		message.ID = id
	}
	s.logger.DebugContext(ctx, "Message saved", "message_id", message.MessageID, "type", message.Type)
	return nil
}

// UpdateMessage rewrites the mutable columns of a stored message. Edits for
// messages that were never stored are inserted instead.
func (s *sqlxStore) UpdateMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return errors.New("cannot update nil message")
	}

	query := `
        UPDATE messages
        SET caption = :caption, text = :text, sticker_set_name = :sticker_set_name,
            new_chat_title = :new_chat_title, file_id = :file_id, type = :type
        WHERE message_id = :message_id AND from_user IS :from_user;
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating message", "message_id", message.MessageID, "error", err)
		return fmt.Errorf("failed to update message %d: %w", message.MessageID, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		s.logger.DebugContext(ctx, "Edited message not found, inserting", "message_id", message.MessageID)
		return s.SaveMessage(ctx, message)
	}

	s.logger.DebugContext(ctx, "Message updated", "message_id", message.MessageID)
	return nil
}

// SaveUserEvents appends membership events in one transaction.
func (s *sqlxStore) SaveUserEvents(ctx context.Context, events []UserEvent) error {
	if len(events) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO user_events (message_id, user_id, date, event) VALUES (:message_id, :user_id, :date, :event);`
		for i := range events {
			if _, err := tx.NamedExecContext(ctx, query, &events[i]); err != nil {
				return fmt.Errorf("failed to save user event for user %d: %w", events[i].UserID, err)
			}
		}
		s.logger.DebugContext(ctx, "User events saved", "count", len(events))
		return nil
	})
}

// SaveUserNames inserts a new identity row for users whose display name changed
// (or who are new) and rewrites the username on the latest row otherwise.
func (s *sqlxStore) SaveUserNames(ctx context.Context, updates []UserNameUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := s.now().Unix()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			if u.NewIdentity {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO user_names (user_id, date, username, display_name) VALUES (?, ?, ?, ?);`,
					u.UserID, now, u.Username, u.DisplayName)
				if err != nil {
					return fmt.Errorf("failed to insert identity for user %d: %w", u.UserID, err)
				}
				continue
			}

			_, err := tx.ExecContext(ctx, `
                UPDATE user_names SET username = ?
                WHERE id = (SELECT id FROM user_names WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT 1);`,
				u.Username, u.UserID)
			if err != nil {
				return fmt.Errorf("failed to update username for user %d: %w", u.UserID, err)
			}
		}
		s.logger.InfoContext(ctx, "User names saved", "count", len(updates))
		return nil
	})
}

// RunSQLMaintenance merges the full-text index segments and vacuums the database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")

	if _, err := s.db.ExecContext(ctx, `INSERT INTO messages_fts (messages_fts) VALUES ('optimize');`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to optimize full-text index", "error", err)
		return fmt.Errorf("failed to optimize full-text index: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Failed to execute VACUUM", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed successfully")
	return nil
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (s *sqlxStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		s.logger.ErrorContext(ctx, "Transaction failed", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
