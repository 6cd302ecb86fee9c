package stats

import (
	"context"
	"strconv"

	"github.com/edgard/statsbot/internal/render"
)

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// scopedTitle names a chart after the lexical query or the user it covers.
func scopedTitle(base string, p Params) string {
	switch {
	case p.LQuery != "":
		return base + " for " + p.LQuery
	case p.User != nil:
		return base + " for " + p.User.Username
	default:
		return base
	}
}

func (r *Runner) countsByHour(ctx context.Context, p Params) (Result, error) {
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

	s := hourlySeries(buckets, r.loc, true)
	groups, ylabel := byHourOfDay(s), "Messages per Day"
	if p.User != nil {
		// per-week sums normalize for how long the user has been around
		groups, ylabel = weeklyByHourOfDay(s), "Messages per Week"
	}

	var all []float64
	labels := make([]string, 24)
	for h, g := range groups {
		labels[h] = strconv.Itoa(h)
		all = append(all, g...)
	}
	img, err := render.StripBox(scopedTitle("Messages per Hour", p), "Hour", ylabel,
		labels, groups[:], quantileHigher(all, 0.999), 11.5, 23.5)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindSuccess, Image: img}, nil
}

func (r *Runner) countsByDay(ctx context.Context, p Params) (Result, error) {
	draw := render.Violins
	switch p.Plot {
	case "", "violin":
	case "box":
		draw = render.Boxes
	default:
		return Result{}, usagef("plot must be 'box' or 'violin'")
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

	groups := byWeekday(dailySeries(buckets, r.loc, true))
	img, err := draw(scopedTitle("Messages per Day of the Week", p), "Messages per Day",
		weekdayNames, groups[:], 4.5, 6.5)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Kind:   KindSuccess,
		Text:   render.EscapeMarkdown("This chart shows how many messages the group sends on each day of the week!"),
		Format: FormatMarkdown,
		Image:  img,
	}, nil
}

func (r *Runner) weekByHourDay(ctx context.Context, p Params) (Result, error) {
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

	matrix := hourWeekdayPercent(hourlySeries(buckets, r.loc, false))
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = strconv.Itoa(h)
	}
	img, err := render.Heatmap(scopedTitle("Share of messages by day and hour", p),
		hours, []string{"M", "T", "W", "T", "F", "S", "S"}, matrix)
	if err != nil {
		return Result{}, err
	}

	var caption string
	switch {
	case p.LQuery != "":
		caption = "This chart shows how the matching messages spread over the hours of each weekday! " +
			"The darker the square, the more was said on that weekday at that hour."
	case p.User != nil:
		caption = "This chart shows how " + p.User.Username + " spreads messages over the hours of each weekday! " +
			"The darker the square, the more they talked on that weekday at that hour."
	default:
		caption = "This chart shows how the group spreads messages over the hours of each weekday since I started counting! " +
			"The darker the square, the more was said on that weekday at that hour."
	}
	return Result{Kind: KindSuccess, Text: render.EscapeMarkdown(caption), Format: FormatMarkdown, Image: img}, nil
}
