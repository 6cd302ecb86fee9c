package stats

import (
	"context"
	"fmt"
	"strings"
)

// Statistic is one reportable analysis: a subcommand of the /stats parser.
type Statistic struct {
	Name string
	// Doc is the help text. Its first line is the summary, ":param <name>: <text>"
	// lines describe flags.
	Doc    string
	Params []ParamSpec
	Run    func(r *Runner, ctx context.Context, p Params) (Result, error)
}

const (
	docLQuery = `:param lquery: Limit results to lexical query (&, |, !, <n>)`
	docMType  = `:param mtype: Limit results to message type (text, sticker, photo, etc.)`
	docStart  = `:param start: Start timestamp (e.g. 2019, 2019-01, 2019-01-01, "2019-01-01 14:21")`
	docEnd    = `:param end: End timestamp (e.g. 2019, 2019-01, 2019-01-01, "2019-01-01 14:21")`
)

var (
	paramLQuery = ParamSpec{Name: "lquery", Kind: KindString, Default: ""}
	paramMType  = ParamSpec{Name: "mtype", Kind: KindString, Default: ""}
	paramStart  = ParamSpec{Name: "start", Kind: KindString, Default: ""}
	paramEnd    = ParamSpec{Name: "end", Kind: KindString, Default: ""}
	paramUser   = ParamSpec{Name: "user", Role: RoleUser}
	paramMe     = ParamSpec{Name: "user", Role: RoleUser, Required: true}
)

func doc(lines ...string) string { return strings.Join(lines, "\n") }

// Statistics returns the fixed table of statistics in help order. The table
// is rebuilt on every call so callers cannot mutate a shared copy.
func Statistics() []Statistic {
	return []Statistic{
		{
			Name: "counts",
			Doc:  doc("Get top chat users", docLQuery, docMType, ":param n: Number of users to show", docStart, docEnd),
			Params: []ParamSpec{
				{Name: "n", Kind: KindInt, Default: 20},
				paramLQuery, paramMType, paramStart, paramEnd,
			},
			Run: (*Runner).chatCounts,
		},
		{
			Name:   "ecdf",
			Doc:    doc("Get message counts by number of users as an ECDF plot.", docLQuery, docMType, docStart, docEnd, ":param log: Plot with log scale."),
			Params: []ParamSpec{paramLQuery, paramMType, paramStart, paramEnd, {Name: "log", Kind: KindBool, Default: false}},
			Run:    (*Runner).chatECDF,
		},
		{
			Name:   "hours",
			Doc:    doc("Get plot of messages for hours of the day", docLQuery, docStart, docEnd),
			Params: []ParamSpec{paramUser, paramLQuery, paramStart, paramEnd},
			Run:    (*Runner).countsByHour,
		},
		{
			Name: "days",
			Doc:  doc("Get plot of messages for days of the week", docLQuery, docStart, docEnd, ":param plot: Type of plot. ('box' or 'violin')"),
			Params: []ParamSpec{
				paramUser, paramLQuery, paramStart, paramEnd,
				{Name: "plot", Kind: KindString, Default: ""},
			},
			Run: (*Runner).countsByDay,
		},
		{
			Name:   "week",
			Doc:    doc("Get plot of messages over the week by day and hour.", docLQuery, docStart, docEnd),
			Params: []ParamSpec{paramLQuery, paramUser, paramStart, paramEnd},
			Run:    (*Runner).weekByHourDay,
		},
		{
			Name: "history",
			Doc:  doc("Make a plot of message history over time", docLQuery, ":param averages: Moving average width (in days)", docStart, docEnd),
			Params: []ParamSpec{
				paramUser, paramLQuery,
				{Name: "averages", Kind: KindOptionalInt},
				paramStart, paramEnd,
			},
			Run: (*Runner).messageHistory,
		},
		{
			Name: "titles",
			Doc:  doc("Make a plot of group titles history over time", docStart, docEnd, ":param duration: If true, order by duration instead of time."),
			Params: []ParamSpec{
				paramStart, paramEnd,
				{Name: "duration", Kind: KindBool, Default: false},
			},
			Run: (*Runner).titleHistory,
		},
		{
			Name:   "user",
			Doc:    "Get summary of a user.",
			Params: []ParamSpec{paramMe},
			Run:    (*Runner).userSummary,
		},
		{
			Name: "corr",
			Doc: doc("Return correlations between you and other users.", docStart, docEnd,
				":param agg: If True, calculate correlation over messages aggregated by hours of the week",
				":param c_type: Correlation type to use. Either 'pearson' or 'spearman'",
				":param n: Show n highest and lowest correlation scores",
				":param thresh: Fraction of time bins that have data for both users to be considered valid (0-1)"),
			Params: []ParamSpec{
				paramMe, paramStart, paramEnd,
				{Name: "agg", Kind: KindBool, Default: true},
				{Name: "c_type", Kind: KindString, Default: ""},
				{Name: "n", Kind: KindInt, Default: 5},
				{Name: "thresh", Kind: KindFloat, Default: 0.05},
			},
			Run: (*Runner).userCorrelation,
		},
		{
			Name: "delta",
			Doc: doc("Return the median difference in message time between you and other users.", docLQuery, docStart, docEnd,
				":param n: Show n lowest median deltas",
				":param thresh: Only consider users with at least this many message group pairs with you"),
			Params: []ParamSpec{
				paramMe, paramLQuery, paramStart, paramEnd,
				{Name: "n", Kind: KindInt, Default: 10},
				{Name: "thresh", Kind: KindInt, Default: 500},
			},
			Run: (*Runner).messageDeltas,
		},
		{
			Name:   "types",
			Doc:    doc("Print table of message statistics by type.", docStart, docEnd),
			Params: []ParamSpec{paramStart, paramEnd, {Name: "user", Role: RoleAutoUser}},
			Run:    (*Runner).typeStats,
		},
		{
			Name: "words",
			Doc: doc("Print table of lexeme statistics.",
				":param n: Only consider lexemes with length of at least n",
				":param limit: Number of top lexemes to return", docStart, docEnd),
			Params: []ParamSpec{
				{Name: "n", Kind: KindInt, Default: 4},
				{Name: "limit", Kind: KindInt, Default: 20},
				paramStart, paramEnd, paramUser,
			},
			Run: (*Runner).wordStats,
		},
		{
			Name:   "random",
			Doc:    doc("Display a random message.", docLQuery, docStart, docEnd),
			Params: []ParamSpec{paramLQuery, paramStart, paramEnd, paramUser},
			Run:    (*Runner).randomMessage,
		},
	}
}

// Lookup returns the statistic called name.
func Lookup(name string) (Statistic, bool) {
	for _, s := range Statistics() {
		if s.Name == name {
			return s, true
		}
	}
	return Statistic{}, false
}

// Names lists the statistic names in help order.
func Names() []string {
	all := Statistics()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// Summary is the first line of the statistic's documentation.
func (s Statistic) Summary() string { return summary(s.Doc) }

// defaults returns Params holding every declared default.
func (s Statistic) defaults() Params {
	var p Params
	for _, spec := range s.Params {
		if spec.Role != RolePlain || spec.Default == nil {
			continue
		}
		if err := p.set(spec.Name, spec.Default); err != nil {
			panic(fmt.Sprintf("statistic %s: %v", s.Name, err))
		}
	}
	return p
}

func (s Statistic) wantsUser() (ParamSpec, bool) {
	for _, spec := range s.Params {
		if spec.Role != RolePlain {
			return spec, true
		}
	}
	return ParamSpec{}, false
}
