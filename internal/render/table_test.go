package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/edgard/statsbot/internal/render"
)

func TestTable(t *testing.T) {
	t.Parallel()

	got := render.Table(
		[]render.Column{{Header: "User"}, {Header: "Total Messages", Numeric: true}, {Header: "Percent", Numeric: true}},
		[][]string{
			{"@alice", "5", "62.5"},
			{"bob", "3", "37.5"},
		},
	)
	want := "" +
		"User    Total Messages  Percent\n" +
		"@alice               5     62.5\n" +
		"bob                  3     37.5"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Table() mismatch (-want +got):\n%s", diff)
	}
}

func TestPairs(t *testing.T) {
	t.Parallel()

	got := render.Pairs([]string{"@alice", "bob"}, []string{"0.912", "-0.100"})
	want := "" +
		"@alice   0.912\n" +
		"bob     -0.100"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}
}
