package stats

import (
	"slices"
	"strings"
	"time"
)

// MessageTypes are the values accepted by -mtype.
var MessageTypes = []string{
	"text", "sticker", "photo", "animation",
	"video", "voice", "location", "video_note",
	"audio", "document", "poll",
}

// excludedTypes are service messages left out of per-type statistics.
var excludedTypes = []string{
	"new_chat_members", "left_chat_member", "new_chat_photo",
	"new_chat_title", "migrate_from_group", "pinned_message",
}

// Filter restricts the messages a query reads. Zero values mean no restriction.
type Filter struct {
	LQuery string
	MType  string
	Start  time.Time
	End    time.Time
	UserID *int64
	// Types keeps only these message types.
	Types []string
	// ExcludeTypes drops these message types.
	ExcludeTypes []string
	// SenderOnly drops messages without a sender.
	SenderOnly bool
}

// newFilter validates the common parameters and turns them into a Filter.
func (r *Runner) newFilter(p Params) (Filter, error) {
	var f Filter
	if p.LQuery != "" {
		if _, _, err := ParseLexQuery(p.LQuery, "id"); err != nil {
			return Filter{}, err
		}
		f.LQuery = p.LQuery
	}
	if p.MType != "" {
		if !slices.Contains(MessageTypes, p.MType) {
			return Filter{}, usagef("mtype %s is invalid.", p.MType)
		}
		f.MType = p.MType
	}
	if p.Start != "" {
		t, err := ParseDate(p.Start, r.loc)
		if err != nil {
			return Filter{}, err
		}
		f.Start = t
	}
	if p.End != "" {
		t, err := ParseDate(p.End, r.loc)
		if err != nil {
			return Filter{}, err
		}
		f.End = t
	}
	if p.User != nil {
		id := p.User.ID
		f.UserID = &id
	}
	return f, nil
}

// where renders the filter as predicates on the messages table aliased as
// alias, joined with AND. It returns "1=1" when nothing is filtered.
func (f Filter) where(alias string) (string, []any) {
	col := func(name string) string { return alias + "." + name }

	var (
		preds []string
		args  []any
	)
	if f.LQuery != "" {
		s, a, err := ParseLexQuery(f.LQuery, col("id"))
		if err == nil {
			preds = append(preds, s)
			args = append(args, a...)
		}
	}
	if f.MType != "" {
		preds = append(preds, col("type")+" = ?")
		args = append(args, f.MType)
	}
	if len(f.Types) > 0 {
		preds = append(preds, col("type")+" IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if len(f.ExcludeTypes) > 0 {
		preds = append(preds, col("type")+" NOT IN ("+placeholders(len(f.ExcludeTypes))+")")
		for _, t := range f.ExcludeTypes {
			args = append(args, t)
		}
	}
	if !f.Start.IsZero() {
		preds = append(preds, col("date")+" >= ?")
		args = append(args, f.Start.Unix())
	}
	if !f.End.IsZero() {
		preds = append(preds, col("date")+" < ?")
		args = append(args, f.End.Unix())
	}
	if f.UserID != nil {
		preds = append(preds, col("from_user")+" = ?")
		args = append(args, *f.UserID)
	}
	if f.SenderOnly {
		preds = append(preds, col("from_user")+" IS NOT NULL")
	}
	if len(preds) == 0 {
		return "1=1", nil
	}
	return strings.Join(preds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
