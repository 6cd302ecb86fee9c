package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// queries runs the read-only aggregate queries behind every statistic.
type queries struct {
	db sqlx.QueryerContext
}

type userCount struct {
	UserID int64 `db:"from_user"`
	Count  int64 `db:"msg_count"`
}

type bucketCount struct {
	Bucket int64 `db:"bucket"`
	Count  int64 `db:"messages"`
}

type userBucketCount struct {
	UserID int64 `db:"from_user"`
	Bucket int64 `db:"bucket"`
	Count  int64 `db:"messages"`
}

type typeCount struct {
	Type  string `db:"type"`
	Count int64  `db:"msg_count"`
}

type lexemeStat struct {
	Word    string `db:"word"`
	Docs    int64  `db:"ndoc"`
	Entries int64  `db:"nentry"`
}

type titleChange struct {
	Date  int64  `db:"date"`
	Title string `db:"new_chat_title"`
}

type textMessage struct {
	Date     int64  `db:"date"`
	FromUser *int64 `db:"from_user"`
	Text     string `db:"text"`
}

type userEventRow struct {
	Date  int64  `db:"date"`
	Event string `db:"event"`
}

type identityRow struct {
	UserID      int64  `db:"user_id"`
	Username    string `db:"username"`
	DisplayName string `db:"display_name"`
}

func (q queries) countsByUser(ctx context.Context, f Filter) ([]userCount, error) {
	f.SenderOnly = true
	where, args := f.where("m")
	query := `SELECT m.from_user, COUNT(*) AS msg_count
		FROM messages m
		WHERE ` + where + `
		GROUP BY m.from_user
		ORDER BY msg_count DESC, m.from_user`

	var rows []userCount
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count messages by user: %w", err)
	}
	return rows, nil
}

// hourlyCounts returns message counts per UTC hour, oldest first. Hours
// without messages are absent.
func (q queries) hourlyCounts(ctx context.Context, f Filter) ([]bucketCount, error) {
	where, args := f.where("m")
	query := `SELECT (m.date / 3600) * 3600 AS bucket, COUNT(*) AS messages
		FROM messages m
		WHERE ` + where + `
		GROUP BY bucket
		ORDER BY bucket`

	var rows []bucketCount
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count messages by hour: %w", err)
	}
	return rows, nil
}

func (q queries) hourlyCountsByUser(ctx context.Context, f Filter) ([]userBucketCount, error) {
	f.SenderOnly = true
	where, args := f.where("m")
	query := `SELECT m.from_user, (m.date / 3600) * 3600 AS bucket, COUNT(*) AS messages
		FROM messages m
		WHERE ` + where + `
		GROUP BY bucket, m.from_user
		ORDER BY bucket, m.from_user`

	var rows []userBucketCount
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count user messages by hour: %w", err)
	}
	return rows, nil
}

func (q queries) typeCounts(ctx context.Context, f Filter) ([]typeCount, error) {
	f.ExcludeTypes = excludedTypes
	where, args := f.where("m")
	query := `SELECT m.type, COUNT(*) AS msg_count
		FROM messages m
		WHERE ` + where + `
		GROUP BY m.type
		ORDER BY msg_count DESC, m.type`

	var rows []typeCount
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count messages by type: %w", err)
	}
	return rows, nil
}

// lexemes returns per-word document and occurrence counts over the indexed
// message text. minLen and limit are ignored when zero.
func (q queries) lexemes(ctx context.Context, f Filter, minLen, limit int) ([]lexemeStat, error) {
	where, args := f.where("m")
	query := `SELECT v.term AS word, COUNT(DISTINCT v.doc) AS ndoc, COUNT(*) AS nentry
		FROM messages_vocab v
		JOIN messages m ON m.id = v.doc
		WHERE ` + where
	if minLen > 0 {
		query += ` AND length(v.term) >= ?`
		args = append(args, minLen)
	}
	query += `
		GROUP BY v.term
		ORDER BY nentry DESC, ndoc DESC, word`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []lexemeStat
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to compute lexeme statistics: %w", err)
	}
	return rows, nil
}

func (q queries) titleChanges(ctx context.Context, f Filter) ([]titleChange, error) {
	f.Types = []string{"new_chat_title"}
	where, args := f.where("m")
	query := `SELECT m.date, coalesce(m.new_chat_title, '') AS new_chat_title
		FROM messages m
		WHERE ` + where + `
		ORDER BY m.date, m.id`

	var rows []titleChange
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load chat titles: %w", err)
	}
	return rows, nil
}

// transitionDeltas returns the gaps in seconds between consecutive runs of
// messages when only the messages of me and other are considered. A run is a
// maximal sequence from one sender; its group key is the difference between
// the global and the per-sender dense rank.
func (q queries) transitionDeltas(ctx context.Context, f Filter, me, other int64) ([]float64, error) {
	f.UserID = nil
	where, args := f.where("m")
	query := `SELECT t_delta FROM (
			SELECT run_start - LAG(run_end, 1) OVER (ORDER BY run_start) AS t_delta
			FROM (
				SELECT MIN(date) AS run_start, MAX(date) AS run_end
				FROM (
					SELECT m.date, m.from_user,
						DENSE_RANK() OVER (ORDER BY m.date)
							- DENSE_RANK() OVER (PARTITION BY m.from_user ORDER BY m.date) AS grp
					FROM messages m
					WHERE m.from_user IN (?, ?) AND ` + where + `
				) t
				GROUP BY from_user, grp
			) t1
		) t2
		WHERE t_delta IS NOT NULL`

	var deltas []float64
	if err := sqlx.SelectContext(ctx, q.db, &deltas, query, append([]any{me, other}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to compute message deltas: %w", err)
	}
	return deltas, nil
}

// randomText picks one text message at random, or nil when none match.
func (q queries) randomText(ctx context.Context, f Filter) (*textMessage, error) {
	f.Types = []string{"text"}
	where, args := f.where("m")
	query := `SELECT m.date, m.from_user, coalesce(m.text, '') AS text
		FROM messages m
		WHERE ` + where + `
		ORDER BY RANDOM()
		LIMIT 1`

	var msg textMessage
	if err := sqlx.GetContext(ctx, q.db, &msg, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick a random message: %w", err)
	}
	return &msg, nil
}

type userTotals struct {
	Messages  int64         `db:"messages"`
	FirstDate sql.NullInt64 `db:"first_date"`
	Names     int64         `db:"names"`
}

func (q queries) userTotals(ctx context.Context, userID int64) (userTotals, error) {
	query := `SELECT
			(SELECT COUNT(*) FROM messages WHERE from_user = ?) AS messages,
			(SELECT MIN(date) FROM messages WHERE from_user = ?) AS first_date,
			(SELECT COUNT(*) FROM user_names WHERE user_id = ?) AS names`

	var totals userTotals
	if err := sqlx.GetContext(ctx, q.db, &totals, query, userID, userID, userID); err != nil {
		return userTotals{}, fmt.Errorf("failed to load user totals: %w", err)
	}
	return totals, nil
}

func (q queries) userEvents(ctx context.Context, userID int64) ([]userEventRow, error) {
	var rows []userEventRow
	err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT date, event FROM user_events WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user events: %w", err)
	}
	return rows, nil
}

func (q queries) messageUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, q.db, &ids,
		`SELECT DISTINCT from_user FROM messages WHERE from_user IS NOT NULL ORDER BY from_user`)
	if err != nil {
		return nil, fmt.Errorf("failed to list message senders: %w", err)
	}
	return ids, nil
}

// latestIdentities returns the newest user_names row of every user.
func (q queries) latestIdentities(ctx context.Context) ([]identityRow, error) {
	query := `SELECT user_id, username, display_name
		FROM (
			SELECT user_id, username, display_name,
				ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY date DESC, id DESC) AS rn
			FROM user_names
		) t
		WHERE rn = 1
		ORDER BY user_id`

	var rows []identityRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load user names: %w", err)
	}
	return rows, nil
}
