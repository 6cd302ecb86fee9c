package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/statsbot/internal/render"
)

const eventTimeLayout = "2006-01-02 15:04:05-07:00"

func (r *Runner) userSummary(ctx context.Context, p Params) (Result, error) {
	if p.User == nil {
		return Result{}, usagef("user needs a user, try: /stats user -me")
	}
	uid := p.User.ID

	totals, err := r.q.userTotals(ctx, uid)
	if err != nil {
		return Result{}, err
	}
	if totals.Messages == 0 || !totals.FirstDate.Valid {
		return noDataResult("No data for user"), nil
	}
	events, err := r.q.userEvents(ctx, uid)
	if err != nil {
		return Result{}, err
	}
	types, err := r.q.typeCounts(ctx, Filter{UserID: &uid})
	if err != nil {
		return Result{}, err
	}
	byType := make(map[string]int64, len(types))
	for _, t := range types {
		byType[t.Type] = t.Count
	}

	days := r.now().Sub(time.Unix(totals.FirstDate.Int64, 0)).Hours() / 24
	perDay := float64(totals.Messages)
	if days > 0 {
		perDay /= days
	}
	perName := "n/a"
	if totals.Names > 0 {
		perName = fmt.Sprintf("%.2f days", days/float64(totals.Names))
	}

	lines := []string{
		fmt.Sprintf("Messages sent: %d", totals.Messages),
		fmt.Sprintf("Average messages per day: %.2f", perDay),
		fmt.Sprintf("First message was %.2f days ago", days),
		fmt.Sprintf("Usernames on record: %d", totals.Names),
		"Average time per username: " + perName,
		fmt.Sprintf("Texts sent: %d", byType["text"]),
		fmt.Sprintf("Stickers sent: %d", byType["sticker"]),
		fmt.Sprintf("Photos sent: %d", byType["photo"]),
		fmt.Sprintf("GIFs sent: %d", byType["animation"]),
	}
	if len(events) > 0 {
		lines = append(lines, "")
		for _, e := range events {
			lines = append(lines, e.Event+" on "+time.Unix(e.Date, 0).In(r.loc).Format(eventTimeLayout))
		}
	}

	text := render.EscapeMarkdown("Statistics for "+plainName(p.User)+":") + "\n" +
		render.CodeBlock(strings.Join(lines, "\n"))
	return Result{Kind: KindSuccess, Text: text, Format: FormatMarkdown}, nil
}

func percentages(counts []int64) []float64 {
	var total int64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c) / float64(total) * 100
	}
	return out
}

func (r *Runner) typeStats(ctx context.Context, p Params) (Result, error) {
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	group := f
	group.UserID = nil
	groupRows, err := r.q.typeCounts(ctx, group)
	if err != nil {
		return Result{}, err
	}
	if len(groupRows) == 0 {
		return noDataResult("No messages in range"), nil
	}

	types := make([]string, len(groupRows))
	groupCounts := make([]int64, len(groupRows))
	for i, row := range groupRows {
		types[i], groupCounts[i] = row.Type, row.Count
	}

	columns := []render.Column{
		{Header: "type"},
		{Header: "Group Count", Numeric: true},
		{Header: "Group Percent", Numeric: true},
	}

	var userCounts []int64
	if p.User != nil {
		userRows, err := r.q.typeCounts(ctx, f)
		if err != nil {
			return Result{}, err
		}
		userByType := map[string]int64{}
		for _, row := range userRows {
			userByType[row.Type] = row.Count
		}
		userCounts = make([]int64, len(types))
		for i, t := range types {
			userCounts[i] = userByType[t]
		}
		columns = append(columns,
			render.Column{Header: "User Count", Numeric: true},
			render.Column{Header: "User Percent", Numeric: true})
	}

	groupPct := percentages(groupCounts)
	userPct := percentages(userCounts)
	var groupTotal, userTotal int64
	var groupPctTotal, userPctTotal float64

	rows := make([][]string, 0, len(types)+1)
	for i, t := range types {
		row := []string{t, strconv.FormatInt(groupCounts[i], 10), fmt.Sprintf("%.1f", groupPct[i])}
		groupTotal += groupCounts[i]
		groupPctTotal += groupPct[i]
		if userCounts != nil {
			pct := 0.0
			if userCounts[i] > 0 {
				pct = userPct[i]
			}
			row = append(row, strconv.FormatInt(userCounts[i], 10), fmt.Sprintf("%.1f", pct))
			userTotal += userCounts[i]
			userPctTotal += pct
		}
		rows = append(rows, row)
	}
	totalRow := []string{"Total", strconv.FormatInt(groupTotal, 10), fmt.Sprintf("%.1f", groupPctTotal)}
	if userCounts != nil {
		totalRow = append(totalRow, strconv.FormatInt(userTotal, 10), fmt.Sprintf("%.1f", userPctTotal))
	}
	rows = append(rows, totalRow)

	heading := "Messages by type:"
	if p.User != nil {
		heading = "Messages by type - " + p.User.Username + " vs group:"
	}
	text := render.Bold(render.EscapeMarkdown(heading)) + "\n" + render.CodeBlock(render.Table(columns, rows))
	return Result{Kind: KindSuccess, Text: text, Format: FormatMarkdown}, nil
}
