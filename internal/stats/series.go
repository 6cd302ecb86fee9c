package stats

import (
	"math"
	"slices"
	"time"
)

// series is a regular time series: Values[i] belongs to Times[i].
type series struct {
	Times  []time.Time
	Values []float64
}

// Len is the number of periods.
func (s series) Len() int { return len(s.Times) }

// hourlySeries reindexes sparse hourly buckets onto a contiguous hourly grid
// in loc, filling missing hours with zero. When pad is set a span shorter
// than a day is extended to 24 hours.
func hourlySeries(buckets []bucketCount, loc *time.Location, pad bool) series {
	if len(buckets) == 0 {
		return series{}
	}
	first := buckets[0].Bucket
	last := buckets[len(buckets)-1].Bucket
	if pad && last-first < 24*3600 {
		last = first + 23*3600
	}

	n := int((last-first)/3600) + 1
	s := series{Times: make([]time.Time, n), Values: make([]float64, n)}
	for i := range n {
		s.Times[i] = time.Unix(first+int64(i)*3600, 0).In(loc)
	}
	for _, b := range buckets {
		s.Values[(b.Bucket-first)/3600] += float64(b.Count)
	}
	return s
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// dailySeries sums hourly buckets into calendar days of loc on a contiguous
// daily grid, filling missing days with zero. When pad is set a span shorter
// than a week is extended to 7 days.
func dailySeries(buckets []bucketCount, loc *time.Location, pad bool) series {
	if len(buckets) == 0 {
		return series{}
	}
	first := startOfDay(time.Unix(buckets[0].Bucket, 0).In(loc))
	last := startOfDay(time.Unix(buckets[len(buckets)-1].Bucket, 0).In(loc))

	var s series
	index := map[string]int{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		index[dayKey(d)] = len(s.Times)
		s.Times = append(s.Times, d)
	}
	if pad && last.Sub(first) < 7*24*time.Hour {
		for d := first.AddDate(0, 0, len(s.Times)); len(s.Times) < 7; d = d.AddDate(0, 0, 1) {
			s.Times = append(s.Times, d)
		}
	}
	s.Values = make([]float64, len(s.Times))
	for _, b := range buckets {
		s.Values[index[dayKey(time.Unix(b.Bucket, 0).In(loc))]] += float64(b.Count)
	}
	return s
}

// byHourOfDay groups the values of an hourly series by local hour.
func byHourOfDay(s series) [24][]float64 {
	var out [24][]float64
	for i, t := range s.Times {
		out[t.Hour()] = append(out[t.Hour()], s.Values[i])
	}
	return out
}

// weeklyByHourOfDay sums an hourly series into 7-day periods separately for
// every local hour. Periods start at midnight of the first day; each hour
// covers the periods from its first to its last observation.
func weeklyByHourOfDay(s series) [24][]float64 {
	var out [24][]float64
	if s.Len() == 0 {
		return out
	}
	origin := startOfDay(s.Times[0])
	const week = 7 * 24 * time.Hour

	var firstBin, lastBin [24]int
	for h := range firstBin {
		firstBin[h] = -1
	}
	for _, t := range s.Times {
		h, bin := t.Hour(), int(t.Sub(origin)/week)
		if firstBin[h] < 0 {
			firstBin[h] = bin
		}
		lastBin[h] = bin
	}
	for h := range out {
		if firstBin[h] >= 0 {
			out[h] = make([]float64, lastBin[h]-firstBin[h]+1)
		}
	}
	for i, t := range s.Times {
		h := t.Hour()
		out[h][int(t.Sub(origin)/week)-firstBin[h]] += s.Values[i]
	}
	return out
}

// byWeekday groups the values of a daily series by weekday, Monday first.
func byWeekday(s series) [7][]float64 {
	var out [7][]float64
	for i, t := range s.Times {
		d := weekdayIndex(t.Weekday())
		out[d] = append(out[d], s.Values[i])
	}
	return out
}

// weekdayIndex numbers weekdays from Monday = 0.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// hourWeekdayPercent sums an hourly series into a 24 x 7 matrix (hour rows,
// Monday-first weekday columns) and converts every row to percentages of its
// total. Rows without messages are NaN.
func hourWeekdayPercent(s series) [][]float64 {
	out := make([][]float64, 24)
	for h := range out {
		out[h] = make([]float64, 7)
	}
	for i, t := range s.Times {
		out[t.Hour()][weekdayIndex(t.Weekday())] += s.Values[i]
	}
	for _, row := range out {
		total := 0.0
		for _, v := range row {
			total += v
		}
		for d := range row {
			row[d] = row[d] / total * 100
		}
	}
	return out
}

// rollingMean is the centred moving average over window periods. Positions
// without a full window are NaN.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 {
		return out
	}
	for i := range values {
		start := i - window/2
		end := start + window
		if start < 0 || end > len(values) {
			continue
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// defaultAverages is the rolling window used when none is requested: a
// twentieth of the span, disabled when that is at most one period.
func defaultAverages(periods int) int {
	w := periods / 20
	if w <= 1 {
		return 0
	}
	return w
}

// quantileHigher returns the smallest value at or above the q quantile.
func quantileHigher(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	idx := int(math.Ceil(q * float64(len(sorted)-1)))
	return sorted[idx]
}

func sortedCopy(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
