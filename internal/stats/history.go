package stats

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/edgard/statsbot/internal/render"
)

func (r *Runner) messageHistory(ctx context.Context, p Params) (Result, error) {
	if p.Averages != nil && *p.Averages < 0 {
		return Result{}, usagef("averages must be >= 0, got: %d", *p.Averages)
	}
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	buckets, err := r.q.hourlyCounts(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if len(buckets) == 0 {
		return noDataResult(msgNoMatches), nil
	}

	s := dailySeries(buckets, r.loc, false)
	window := defaultAverages(s.Len())
	if p.Averages != nil {
		window = *p.Averages
	}

	lines := []render.Series{{Values: s.Values, Color: render.Set2[2], Alpha: 0xff}}
	if window > 0 {
		lines[0].Alpha = 0x80
		lines = append(lines, render.Series{Values: rollingMean(s.Values, window), Color: render.Set2[0], Alpha: 0xff})
	}

	title := "Message History"
	switch {
	case p.LQuery != "":
		title = "Search History: " + p.LQuery
	case p.User != nil:
		title = "Message History for " + p.User.Username
	}
	img, err := render.TimeLines(title, "Date", "Messages", s.Times, r.loc, lines...)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindSuccess, Image: img}, nil
}

type titleInterval struct {
	Title string
	Start time.Time
	End   time.Time
}

func (t titleInterval) Duration() time.Duration { return t.End.Sub(t.Start) }

// titleIntervals turns title changes into intervals ending at the next change,
// the last one ending at until.
func titleIntervals(changes []titleChange, loc *time.Location, until time.Time) []titleInterval {
	out := make([]titleInterval, len(changes))
	for i, c := range changes {
		out[i] = titleInterval{Title: c.Title, Start: time.Unix(c.Date, 0).In(loc)}
		if i+1 < len(changes) {
			out[i].End = time.Unix(changes[i+1].Date, 0).In(loc)
		} else {
			out[i].End = until.In(loc)
		}
	}
	return out
}

func (r *Runner) titleHistory(ctx context.Context, p Params) (Result, error) {
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	f.UserID = nil
	changes, err := r.q.titleChanges(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if len(changes) == 0 {
		return noDataResult("No chat titles in range"), nil
	}

	until := r.now()
	if !f.End.IsZero() {
		until = f.End
	}
	intervals := titleIntervals(changes, r.loc, until)

	if p.Duration {
		slices.SortStableFunc(intervals, func(a, b titleInterval) int {
			return cmp.Compare(a.Duration(), b.Duration())
		})
		labels := make([]string, len(intervals))
		days := make([]float64, len(intervals))
		for i, iv := range intervals {
			labels[i] = iv.Title
			days[i] = iv.Duration().Hours() / 24
		}
		img, err := render.BarsH("Group Name History", "Duration (days)", labels, days)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Kind:   KindSuccess,
			Text:   "This chart shows how long each group name stayed active!",
			Format: FormatPlain,
			Image:  img,
		}, nil
	}

	starts := make([]time.Time, len(intervals))
	ends := make([]time.Time, len(intervals))
	legend := make([]string, len(intervals))
	for i, iv := range intervals {
		starts[i], ends[i] = iv.Start, iv.End
		legend[i] = fmt.Sprintf("%d: %s", i, iv.Title)
	}
	img, err := render.Timeline("Group Name History", starts, ends, r.loc)
	if err != nil {
		return Result{}, err
	}
	text := "This chart shows when the group changed its name!\n\nThe last 10 names:\n\n" +
		strings.Join(legend[max(0, len(legend)-10):], "\n")
	return Result{Kind: KindSuccess, Text: text, Format: FormatPlain, Image: img}, nil
}
