package stats

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses the whole input wins.
var dateLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseDate reads the flexible timestamps accepted by -start and -end: a bare
// year, a year-month, a date or a date and time. Values without an offset are
// read in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, usagef("could not parse date %q (e.g. 2019, 2019-01, 2019-01-01, \"2019-01-01 14:21\")", s)
}
