// Package stats is the statistics engine behind /stats: it parses a
// statistic invocation, runs the aggregate queries over the message log,
// reshapes the results and renders them as text tables or charts.
package stats

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"
)

// DefaultUsersLockTimeout bounds the wait for the identity snapshot lock.
const DefaultUsersLockTimeout = 10 * time.Second

// Runner executes statistics. It is safe for concurrent use.
type Runner struct {
	logger      *slog.Logger
	q           queries
	loc         *time.Location
	now         func() time.Time
	users       atomic.Pointer[map[int64]Identity]
	usersLock   *semaphore.Weighted
	lockTimeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces time.Now, used for "until now" intervals.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithUsersLockTimeout sets how long RefreshUsers waits for the lock.
func WithUsersLockTimeout(d time.Duration) Option {
	return func(r *Runner) { r.lockTimeout = d }
}

// NewRunner creates a Runner reading from db and presenting times in loc, and
// loads the initial identity snapshot.
func NewRunner(ctx context.Context, logger *slog.Logger, db *sqlx.DB, loc *time.Location, opts ...Option) (*Runner, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if loc == nil {
		loc = time.UTC
	}
	r := &Runner{
		logger:      logger.With("component", "stats_runner"),
		q:           queries{db: db},
		loc:         loc,
		now:         time.Now,
		usersLock:   semaphore.NewWeighted(1),
		lockTimeout: DefaultUsersLockTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	empty := map[int64]Identity{}
	r.users.Store(&empty)

	if err := r.RefreshUsers(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Location is the display timezone.
func (r *Runner) Location() *time.Location { return r.loc }

// Users returns the current identity snapshot. The map must not be modified.
func (r *Runner) Users() map[int64]Identity {
	return *r.users.Load()
}

// MessageUserIDs lists every sender id found in the message log.
func (r *Runner) MessageUserIDs(ctx context.Context) ([]int64, error) {
	return r.q.messageUserIDs(ctx)
}

// RefreshUsers reloads the identity snapshot from the latest user_names rows.
// If the lock is not acquired within the timeout the refresh is skipped and
// the previous snapshot stays in place.
func (r *Runner) RefreshUsers(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()
	if err := r.usersLock.Acquire(lockCtx, 1); err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("Skipping user refresh, context done", "error", ctx.Err())
			return nil
		}
		r.logger.Warn("Skipping user refresh, identity lock is busy", "timeout", r.lockTimeout)
		return nil
	}
	defer r.usersLock.Release(1)

	rows, err := r.q.latestIdentities(ctx)
	if err != nil {
		return err
	}
	users := make(map[int64]Identity, len(rows))
	for _, row := range rows {
		users[row.UserID] = Identity{ID: row.UserID, Username: row.Username, DisplayName: row.DisplayName}
	}
	r.users.Store(&users)
	r.logger.Debug("Refreshed user snapshot", "users", len(users))
	return nil
}

// Execute parses tokens and runs the statistic they name for caller.
func (r *Runner) Execute(ctx context.Context, tokens []string, caller Identity) (Result, error) {
	inv, err := Parse(tokens)
	if err != nil {
		if msg, ok := AsUsage(err); ok {
			return usageResult(msg), nil
		}
		return Result{}, err
	}
	return r.Run(ctx, inv, caller)
}

// Run resolves the invocation's user and runs its statistic. Usage problems
// are returned as a usage Result; only storage and rendering failures are
// returned as errors.
func (r *Runner) Run(ctx context.Context, inv Invocation, caller Identity) (Result, error) {
	name := inv.Statistic.Name
	if inv.Statistic.Run == nil {
		return usageResult(fmt.Sprintf("unknown statistic %q", name)), nil
	}

	params := inv.Params
	if spec, ok := inv.Statistic.wantsUser(); ok {
		switch {
		case inv.UserID != nil:
			id, known := r.Users()[*inv.UserID]
			if !known {
				return usageResult("unknown userid"), nil
			}
			params.User = &id
		case inv.Me:
			me := caller
			params.User = &me
		case spec.Required:
			return usageResult(fmt.Sprintf("%s needs a user, try: /stats %s -me", name, name)), nil
		}
	}

	start := time.Now()
	res, err := inv.Statistic.Run(r, ctx, params)
	if err != nil {
		if msg, ok := AsUsage(err); ok {
			return usageResult(msg), nil
		}
		return Result{}, fmt.Errorf("failed to run statistic %s: %w", name, err)
	}
	r.logger.Debug("Statistic finished", "statistic", name, "kind", res.Kind, "duration", time.Since(start))
	return res, nil
}

// label is how a user is shown in tables: the username when known, the id
// otherwise.
func (r *Runner) label(id int64) string {
	if u, ok := r.Users()[id]; ok && u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(id, 10)
}

func plainName(u *Identity) string {
	return strings.TrimPrefix(u.Username, "@")
}
