package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edgard/statsbot/internal/render"
)

const msgNoMatches = "No matching messages"

func (r *Runner) chatCounts(ctx context.Context, p Params) (Result, error) {
	if p.N <= 0 {
		return Result{}, usagef("n must be greater than 0, got: %d", p.N)
	}
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	rows, err := r.q.countsByUser(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return noDataResult(msgNoMatches), nil
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}

	countHeader := "Total Messages"
	switch {
	case p.MType != "":
		countHeader = p.MType
	case p.LQuery != "":
		countHeader = "lquery"
	}

	rows = rows[:min(p.N, len(rows))]
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{
			r.label(row.UserID),
			strconv.FormatInt(row.Count, 10),
			fmt.Sprintf("%.1f", float64(row.Count)/float64(total)*100),
		}
	}
	table := render.Table([]render.Column{
		{Header: "User"},
		{Header: countHeader, Numeric: true},
		{Header: "Percent", Numeric: true},
	}, cells)

	return Result{Kind: KindSuccess, Text: render.CodeBlock(table), Format: FormatMarkdown}, nil
}

func (r *Runner) chatECDF(ctx context.Context, p Params) (Result, error) {
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	rows, err := r.q.countsByUser(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return noDataResult(msgNoMatches), nil
	}

	counts := make([]float64, len(rows))
	for i, row := range rows {
		counts[i] = float64(row.Count)
	}
	title := "Messages per User"
	if p.LQuery != "" {
		title = "Messages per User for " + p.LQuery
	}
	img, err := render.ECDF(title, "Users", "Messages", counts, p.Log)
	if err != nil {
		return Result{}, err
	}

	top := make([]string, 0, 5)
	for _, row := range rows[:min(5, len(rows))] {
		top = append(top, strings.TrimPrefix(r.label(row.UserID), "@"))
	}
	caption := "This chart shows the cumulative distribution of messages per user, " +
		"that is, how many users contributed up to a given number of messages.\n\n" +
		"The top contributors were: " + strings.Join(top, ", ") + "."

	return Result{
		Kind:   KindSuccess,
		Text:   render.EscapeMarkdown(caption),
		Format: FormatMarkdown,
		Image:  img,
	}, nil
}
