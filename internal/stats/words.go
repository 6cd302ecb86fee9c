package stats

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/statsbot/internal/render"
)

// wordStatsStart is the fixed start of the word statistics window; -start is
// ignored by words.
const wordStatsStart = "2024-01-01"

func (r *Runner) wordStats(ctx context.Context, p Params) (Result, error) {
	if p.N <= 0 {
		return Result{}, usagef("n must be greater than 0, got: %d", p.N)
	}
	if p.Limit < 0 {
		return Result{}, usagef("limit cannot be negative, got: %d", p.Limit)
	}
	p.Start = wordStatsStart

	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	rows, err := r.q.lexemes(ctx, f, p.N, p.Limit)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return noDataResult("No messages in range"), nil
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{row.Word, strconv.FormatInt(row.Docs, 10), strconv.FormatInt(row.Entries, 10)}
	}
	table := render.Table([]render.Column{
		{Header: "Lexeme"},
		{Header: "Messages", Numeric: true},
		{Header: "Uses", Numeric: true},
	}, cells)

	heading := "Most frequently used lexemes, all users:"
	if p.User != nil {
		heading = "Most frequently used lexemes, " + plainName(p.User) + ":"
	}
	return Result{
		Kind:   KindSuccess,
		Text:   render.Bold(render.EscapeMarkdown(heading)) + "\n" + render.CodeBlock(table),
		Format: FormatMarkdown,
	}, nil
}

func (r *Runner) randomMessage(ctx context.Context, p Params) (Result, error) {
	f, err := r.newFilter(p)
	if err != nil {
		return Result{}, err
	}
	msg, err := r.q.randomText(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if msg == nil {
		return noDataResult(msgNoMatches), nil
	}

	author := "someone"
	if msg.FromUser != nil {
		author = strings.TrimPrefix(r.label(*msg.FromUser), "@")
	}
	day := time.Unix(msg.Date, 0).In(r.loc).Format("02/01/2006")
	heading := render.Bold(render.EscapeMarkdown("On " + day + ", " + author + " enlightened us with this:"))
	return Result{
		Kind:   KindSuccess,
		Text:   heading + "\n" + render.EscapeMarkdown(msg.Text),
		Format: FormatMarkdown,
	}, nil
}
