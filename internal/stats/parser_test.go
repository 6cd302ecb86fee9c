package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/statsbot/internal/stats"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("no subcommand runs counts", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, "counts", inv.Statistic.Name)
		assert.Equal(t, 20, inv.Params.N)
	})

	t.Run("single dash long flags", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"hours", "-me", "-lquery", "cat & dog", "-start", "2020"})
		require.NoError(t, err)
		assert.Equal(t, "hours", inv.Statistic.Name)
		assert.True(t, inv.Me)
		assert.Nil(t, inv.UserID)
		assert.Equal(t, "cat & dog", inv.Params.LQuery)
		assert.Equal(t, "2020", inv.Params.Start)
	})

	t.Run("typed flags and defaults", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"corr", "-me", "-c_type", "spearman", "-agg=false", "-thresh", "0.2", "-n", "3"})
		require.NoError(t, err)
		assert.Equal(t, "spearman", inv.Params.CType)
		assert.False(t, inv.Params.Agg)
		assert.InDelta(t, 0.2, inv.Params.Thresh, 1e-9)
		assert.Equal(t, 3, inv.Params.N)

		inv, err = stats.Parse([]string{"corr", "--me"})
		require.NoError(t, err)
		assert.True(t, inv.Params.Agg)
		assert.InDelta(t, 0.05, inv.Params.Thresh, 1e-9)
		assert.Equal(t, 5, inv.Params.N)
	})

	t.Run("dashed spelling of underscored names", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"corr", "-me", "--c-type", "pearson"})
		require.NoError(t, err)
		assert.Equal(t, "pearson", inv.Params.CType)
	})

	t.Run("delta thresh is a count", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"delta", "-me"})
		require.NoError(t, err)
		assert.Equal(t, 500.0, inv.Params.Thresh)
		assert.Equal(t, 10, inv.Params.N)
	})

	t.Run("optional averages", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"history"})
		require.NoError(t, err)
		assert.Nil(t, inv.Params.Averages)

		inv, err = stats.Parse([]string{"history", "-averages", "0"})
		require.NoError(t, err)
		require.NotNil(t, inv.Params.Averages)
		assert.Equal(t, 0, *inv.Params.Averages)
	})

	t.Run("explicit user id", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"words", "-user", "42"})
		require.NoError(t, err)
		require.NotNil(t, inv.UserID)
		assert.Equal(t, int64(42), *inv.UserID)
		assert.False(t, inv.Me)
	})

	t.Run("types selects the caller by default", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"types"})
		require.NoError(t, err)
		assert.True(t, inv.Me)
	})

	t.Run("bool switch", func(t *testing.T) {
		t.Parallel()
		inv, err := stats.Parse([]string{"titles", "-duration"})
		require.NoError(t, err)
		assert.True(t, inv.Params.Duration)
	})
}

func TestParseUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "version", args: []string{"-v"}, contains: stats.Version},
		{name: "root help", args: []string{"-h"}, contains: "corr"},
		{name: "subcommand help", args: []string{"counts", "-h"}, contains: "Limit results to lexical query"},
		{name: "hidden user flag", args: []string{"hours", "--help"}, contains: "calculate stats for yourself"},
		{name: "unknown subcommand", args: []string{"nope"}, contains: "unknown command"},
		{name: "unknown flag", args: []string{"counts", "-bogus"}, contains: "unknown"},
		{name: "bad value", args: []string{"counts", "-n", "ten"}, contains: "invalid argument"},
		{name: "me and user together", args: []string{"hours", "-me", "-user", "5"}, contains: "me"},
		{name: "missing required user", args: []string{"user"}, contains: "me"},
		{name: "stray argument", args: []string{"counts", "extra"}, contains: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := stats.Parse(tt.args)
			require.Error(t, err)
			msg, ok := stats.AsUsage(err)
			require.True(t, ok, "parse errors are usage errors")
			assert.Contains(t, msg, tt.contains)
		})
	}
}

func TestParseHelpHidesUserFlag(t *testing.T) {
	t.Parallel()

	_, err := stats.Parse([]string{"hours", "-h"})
	msg, ok := stats.AsUsage(err)
	require.True(t, ok)
	assert.NotContains(t, msg, "--user")
}

func TestSplit(t *testing.T) {
	t.Parallel()

	tokens, err := stats.Split(`counts -lquery "good <-> morning" -n 3`)
	require.NoError(t, err)
	assert.Equal(t, []string{"counts", "-lquery", "good <-> morning", "-n", "3"}, tokens)
}

func TestStatisticsTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		"counts", "ecdf", "hours", "days", "week", "history", "titles",
		"user", "corr", "delta", "types", "words", "random",
	}, stats.Names())

	for _, st := range stats.Statistics() {
		assert.NotEmpty(t, st.Summary(), st.Name)
		assert.NotNil(t, st.Run, st.Name)
		assert.NotPanics(t, func() { st.Defaults() }, st.Name)
	}

	counts, ok := stats.Lookup("counts")
	require.True(t, ok)
	assert.Equal(t, 20, counts.Defaults().N)
}
