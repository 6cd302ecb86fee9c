package stats

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/statsbot/internal/render"
)

const msgTooLittleData = "Sorry, not enough data. Try -agg, a lower -thresh or a longer time range."

// deltaWorkers caps the per-user delta queries running at once.
const deltaWorkers = 4

func (r *Runner) userCorrelation(ctx context.Context, p Params) (Result, error) {
	if p.User == nil {
		return Result{}, usagef("corr needs a user, try: /stats corr -me")
	}
	if p.N <= 0 {
		return Result{}, usagef("n must be greater than 0, got: %d", p.N)
	}
	method := p.CType
	if method == "" {
		method = pearson
	}
	if method != pearson && method != spearman {
		return Result{}, usagef("c_type must be 'pearson' or 'spearman'")
	}
	if p.Thresh < 0 || p.Thresh > 1 {
		return Result{}, usagef("thresh must be between 0 and 1, got: %g", p.Thresh)
	}

	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	f.UserID = nil
	rows, err := r.q.hourlyCountsByUser(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return noDataResult("No messages in range"), nil
	}

	ranking := correlations(rows, corrOptions{
		Target: p.User.ID,
		Agg:    p.Agg,
		Method: method,
		Thresh: p.Thresh,
		Loc:    r.loc,
		Known:  r.Users(),
	})
	if len(ranking) == 0 {
		return noDataResult(msgTooLittleData), nil
	}

	top, bottom := extremes(ranking, p.N)
	shown := append(slices.Clone(top), bottom...)
	labels := make([]string, len(shown))
	values := make([]string, len(shown))
	for i, s := range shown {
		labels[i] = s.Label
		values[i] = fmt.Sprintf("%.3f", s.Value)
	}
	lines := strings.Split(render.Pairs(labels, values), "\n")

	out := "Highest correlation:\n" + strings.Join(lines[:len(top)], "\n") +
		"\n\nLowest correlation:\n" + strings.Join(lines[len(top):], "\n")
	text := render.EscapeMarkdown("Correlation of "+p.User.Username+" with other users:") + "\n" + render.CodeBlock(out)
	return Result{Kind: KindSuccess, Text: text, Format: FormatMarkdown}, nil
}

func (r *Runner) messageDeltas(ctx context.Context, p Params) (Result, error) {
	if p.User == nil {
		return Result{}, usagef("delta needs a user, try: /stats delta -me")
	}
	if p.N <= 0 {
		return Result{}, usagef("n must be greater than 0, got: %d", p.N)
	}
	if p.Thresh < 0 {
		return Result{}, usagef("thresh cannot be negative, got: %g", p.Thresh)
	}

	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	f.UserID = nil

	var (
		mu     sync.Mutex
		deltas []scored
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(deltaWorkers)
	for id, u := range r.Users() {
		if id == p.User.ID {
			continue
		}
		g.Go(func() error {
			gaps, err := r.q.transitionDeltas(gCtx, f, p.User.ID, id)
			if err != nil {
				return err
			}
			if float64(len(gaps)) <= p.Thresh {
				return nil
			}
			mu.Lock()
			deltas = append(deltas, scored{UserID: id, Label: u.Username, Value: float64(medianDelta(gaps))})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if len(deltas) == 0 {
		return noDataResult(msgTooLittleData), nil
	}

	shown := smallest(deltas, p.N)
	labels := make([]string, len(shown))
	values := make([]string, len(shown))
	for i, s := range shown {
		labels[i] = s.Label
		values[i] = FormatDelta(durationOf(s.Value))
	}
	heading := render.Bold(render.EscapeMarkdown("Median time between messages of " + p.User.Username + " and:"))
	return Result{
		Kind:   KindSuccess,
		Text:   heading + "\n" + render.CodeBlock(render.Pairs(labels, values)),
		Format: FormatMarkdown,
	}, nil
}
