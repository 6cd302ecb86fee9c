package stats_test

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/statsbot/internal/stats"
)

// monday is 2024-01-01 00:00 UTC, a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourBucket(t time.Time, count int64) stats.BucketCount {
	return stats.BucketCount{Bucket: t.Unix(), Count: count}
}

func TestHourlySeriesGapFill(t *testing.T) {
	t.Parallel()

	buckets := []stats.BucketCount{
		hourBucket(monday.Add(3*time.Hour), 2),
		hourBucket(monday.Add(15*time.Hour), 1),
	}
	s := stats.HourlySeries(buckets, time.UTC, true)
	require.Equal(t, 24, s.Len())

	byHour := stats.ByHourOfDay(s)
	for h, values := range byHour {
		require.Len(t, values, 1, "hour %d", h)
		switch h {
		case 3:
			assert.Equal(t, 2.0, values[0])
		case 15:
			assert.Equal(t, 1.0, values[0])
		default:
			assert.Equal(t, 0.0, values[0], "hour %d", h)
		}
	}
}

func TestHourlySeriesNoPadding(t *testing.T) {
	t.Parallel()

	buckets := []stats.BucketCount{
		hourBucket(monday.Add(3*time.Hour), 1),
		hourBucket(monday.Add(5*time.Hour), 4),
	}
	s := stats.HourlySeries(buckets, time.UTC, false)
	assert.Equal(t, []float64{1, 0, 4}, s.Values)
	assert.Equal(t, monday.Add(4*time.Hour), s.Times[1].UTC())
}

func TestHourlySeriesInLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-3", -3*3600)
	s := stats.HourlySeries([]stats.BucketCount{hourBucket(monday, 7)}, loc, true)
	byHour := stats.ByHourOfDay(s)
	assert.Equal(t, []float64{7}, byHour[21])
}

func TestDailySeries(t *testing.T) {
	t.Parallel()

	buckets := []stats.BucketCount{
		hourBucket(monday.Add(1*time.Hour), 2),
		hourBucket(monday.Add(20*time.Hour), 3),
		hourBucket(monday.Add(49*time.Hour), 1),
	}

	padded := stats.DailySeries(buckets, time.UTC, true)
	assert.Equal(t, []float64{5, 0, 1, 0, 0, 0, 0}, padded.Values)

	plain := stats.DailySeries(buckets, time.UTC, false)
	assert.Equal(t, []float64{5, 0, 1}, plain.Values)

	byDay := stats.ByWeekday(padded)
	assert.Equal(t, []float64{5}, byDay[0])
	assert.Equal(t, []float64{0}, byDay[6])
}

func TestDailySeriesUsesLocalDays(t *testing.T) {
	t.Parallel()

	// 02:00 UTC on Tuesday is still Monday in UTC-5.
	loc := time.FixedZone("UTC-5", -5*3600)
	buckets := []stats.BucketCount{
		hourBucket(monday.Add(20*time.Hour), 1),
		hourBucket(monday.Add(26*time.Hour), 1),
	}
	s := stats.DailySeries(buckets, loc, false)
	assert.Equal(t, []float64{2}, s.Values)
}

func TestWeeklyByHourOfDay(t *testing.T) {
	t.Parallel()

	buckets := []stats.BucketCount{
		hourBucket(monday, 1),
		hourBucket(monday.Add(15*24*time.Hour-time.Hour), 1),
	}
	s := stats.HourlySeries(buckets, time.UTC, true)
	for i := range s.Values {
		s.Values[i] = 1
	}

	weekly := stats.WeeklyByHourOfDay(s)
	for h, sums := range weekly {
		assert.Equal(t, []float64{7, 7, 1}, sums, "hour %d", h)
	}
}

func TestHourWeekdayPercent(t *testing.T) {
	t.Parallel()

	buckets := []stats.BucketCount{
		hourBucket(monday.Add(10*time.Hour), 3),
		hourBucket(monday.Add(24*time.Hour+10*time.Hour), 1),
	}
	m := stats.HourWeekdayPercent(stats.HourlySeries(buckets, time.UTC, false))
	require.Len(t, m, 24)
	assert.Equal(t, 75.0, m[10][0])
	assert.Equal(t, 25.0, m[10][1])
	assert.Equal(t, 0.0, m[10][2])
	assert.True(t, math.IsNaN(m[3][0]), "rows without messages are undefined")
}

func TestRollingMean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window int
		want   []float64
	}{
		{name: "odd window", window: 3, want: []float64{math.NaN(), 2, 3, 4, math.NaN()}},
		{name: "even window", window: 4, want: []float64{math.NaN(), math.NaN(), 2.5, 3.5, math.NaN()}},
		{name: "window of one", window: 1, want: []float64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := stats.RollingMean([]float64{1, 2, 3, 4, 5}, tt.window)
			require.Len(t, got, len(tt.want))
			for i := range got {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]), "index %d", i)
					continue
				}
				assert.InDelta(t, tt.want[i], got[i], 1e-9, "index %d", i)
			}
		})
	}
}

func TestDefaultAverages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, stats.DefaultAverages(10))
	assert.Equal(t, 0, stats.DefaultAverages(39))
	assert.Equal(t, 2, stats.DefaultAverages(40))
	assert.Equal(t, 18, stats.DefaultAverages(365))
}

func TestProperty_HourlySeriesKeepsEveryMessage(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("gap filling keeps totals and covers every hour", prop.ForAll(
		func(offsets []int) bool {
			seen := map[int]bool{}
			var buckets []stats.BucketCount
			var total float64
			for h := 0; h < 24*30; h++ {
				for _, o := range offsets {
					if o == h && !seen[h] {
						seen[h] = true
						buckets = append(buckets, hourBucket(monday.Add(time.Duration(h)*time.Hour), int64(h%5+1)))
						total += float64(h%5 + 1)
					}
				}
			}
			if len(buckets) == 0 {
				return true
			}

			s := stats.HourlySeries(buckets, time.UTC, true)
			sum := 0.0
			for _, v := range s.Values {
				sum += v
			}
			byHour := stats.ByHourOfDay(s)
			for _, values := range byHour {
				if len(values) == 0 {
					return false
				}
			}
			return sum == total && s.Len() >= 24
		},
		gen.SliceOf(gen.IntRange(0, 24*30-1)),
	))

	properties.TestingRun(t)
}
