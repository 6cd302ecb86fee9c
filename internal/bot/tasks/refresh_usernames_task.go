package tasks

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/go-telegram/bot"
	"github.com/tidwall/gjson"

	"github.com/edgard/statsbot/internal/database"
	"github.com/edgard/statsbot/internal/stats"
)

// newRefreshUsernamesTask asks Telegram for the current name of every sender
// in the log, records the changes and reloads the runner's snapshot.
func newRefreshUsernamesTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "refresh_usernames")

	return func(ctx context.Context) error {
		chatID := deps.Config.Telegram.ChatID
		if chatID == 0 {
			log.WarnContext(ctx, "No chat configured, skipping username refresh")
			return nil
		}
		startTime := time.Now()

		ids, err := deps.Runner.MessageUserIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list message senders: %w", err)
		}

		fetched := make(map[int64]stats.Identity, len(ids))
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			member, err := deps.Telegram.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: id})
			if err != nil {
				// users who left before the bot joined are expected here every run
				log.DebugContext(ctx, "Could not get chat member", "user_id", id, "error", err)
				continue
			}
			raw, err := json.Marshal(member)
			if err != nil {
				log.WarnContext(ctx, "Could not encode chat member", "user_id", id, "error", err)
				continue
			}
			if ident, ok := MemberIdentity(raw); ok {
				fetched[id] = ident
			}
		}

		updates := IdentityUpdates(deps.Runner.Users(), fetched)
		if err := deps.Store.SaveUserNames(ctx, updates); err != nil {
			return fmt.Errorf("failed to save user names: %w", err)
		}
		if err := deps.Runner.RefreshUsers(ctx); err != nil {
			return fmt.Errorf("failed to reload user snapshot: %w", err)
		}

		log.InfoContext(ctx, "Usernames updated",
			"senders", len(ids),
			"fetched", len(fetched),
			"changed", len(updates),
			"duration", time.Since(startTime))
		return nil
	}
}

// MemberIdentity reads the user out of an encoded chat member. The six member
// variants hold the user differently as Go fields, but every encoding carries
// it under a "user" key, either at the top level or one level down.
func MemberIdentity(raw []byte) (stats.Identity, bool) {
	user := gjson.GetBytes(raw, "user")
	if !user.IsObject() {
		gjson.ParseBytes(raw).ForEach(func(_, v gjson.Result) bool {
			if u := v.Get("user"); u.IsObject() {
				user = u
				return false
			}
			return true
		})
	}
	if !user.IsObject() || !user.Get("id").Exists() {
		return stats.Identity{}, false
	}
	return stats.NewIdentity(
		user.Get("id").Int(),
		user.Get("username").String(),
		user.Get("first_name").String(),
		user.Get("last_name").String(),
	), true
}

// IdentityUpdates compares fetched identities with the known snapshot. A new
// history row is written for new users and display name changes; a username
// change alone rewrites the latest row.
func IdentityUpdates(known, fetched map[int64]stats.Identity) []database.UserNameUpdate {
	var updates []database.UserNameUpdate
	for id, now := range fetched {
		before, ok := known[id]
		if ok && before.Username == now.Username && before.DisplayName == now.DisplayName {
			continue
		}
		updates = append(updates, database.UserNameUpdate{
			UserID:      id,
			Username:    now.Username,
			DisplayName: now.DisplayName,
			NewIdentity: !ok || before.DisplayName != now.DisplayName,
		})
	}
	slices.SortFunc(updates, func(a, b database.UserNameUpdate) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return updates
}
