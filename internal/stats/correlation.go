package stats

import (
	"cmp"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	pearson  = "pearson"
	spearman = "spearman"
)

// scored is a labelled value of a ranking.
type scored struct {
	UserID int64
	Label  string
	Value  float64
}

type corrOptions struct {
	Target int64
	Agg    bool
	Method string
	Thresh float64
	Loc    *time.Location
	Known  map[int64]Identity
}

// correlations scores how the hourly activity of every known user tracks the
// target's, highest first. Users failing the coverage threshold and undefined
// coefficients are left out.
func correlations(rows []userBucketCount, opt corrOptions) []scored {
	targetFirst := int64(math.MaxInt64)
	for _, r := range rows {
		if r.UserID == opt.Target {
			targetFirst = min(targetFirst, r.Bucket)
		}
	}
	if targetFirst == math.MaxInt64 {
		return nil
	}

	// cells[user][key] holds summed counts; keys are week slots (aggregated)
	// or hour buckets.
	cells := map[int64]map[int64]float64{}
	keySet := map[int64]struct{}{}
	for _, r := range rows {
		if r.Bucket < targetFirst {
			continue
		}
		if _, ok := opt.Known[r.UserID]; !ok {
			continue
		}
		key := r.Bucket
		if opt.Agg {
			t := time.Unix(r.Bucket, 0).In(opt.Loc)
			key = int64(weekdayIndex(t.Weekday())*24 + t.Hour())
		}
		if cells[r.UserID] == nil {
			cells[r.UserID] = map[int64]float64{}
		}
		cells[r.UserID][key] += float64(r.Count)
		keySet[key] = struct{}{}
	}
	keys := make([]int64, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	target := cells[opt.Target]
	targetTotal := total(target)
	minPeriods := 1
	if opt.Thresh > 0 {
		minPeriods = int(opt.Thresh * float64(len(keys)))
	}

	var out []scored
	for id, other := range cells {
		if id == opt.Target {
			continue
		}
		var x, y []float64
		if opt.Agg {
			if total(other) < opt.Thresh*targetTotal {
				continue
			}
			for _, k := range keys {
				tv, tok := target[k]
				ov, ook := other[k]
				if tok || ook {
					x = append(x, tv)
					y = append(y, ov)
				}
			}
		} else {
			for _, k := range keys {
				tv, tok := target[k]
				ov, ook := other[k]
				if tok && ook {
					x = append(x, tv)
					y = append(y, ov)
				}
			}
			if len(x) < minPeriods {
				continue
			}
		}

		c := correlate(opt.Method, x, y)
		if math.IsNaN(c) {
			continue
		}
		out = append(out, scored{UserID: id, Label: opt.Known[id].Username, Value: c})
	}

	slices.SortFunc(out, func(a, b scored) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

func total(m map[int64]float64) float64 {
	sum := 0.0
	for _, v := range m {
		sum += v
	}
	return sum
}

// correlate returns the Pearson or Spearman coefficient of x and y, NaN when
// it is undefined.
func correlate(method string, x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if method == spearman {
		x, y = ranks(x), ranks(y)
	}
	return stat.Correlation(x, y, nil)
}

// ranks assigns 1-based ranks, ties sharing their average rank.
func ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(values[a], values[b]) })

	out := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// extremes returns the n highest and n lowest entries of a ranking sorted
// highest first. n is clamped to half the ranking, and to at least one.
func extremes(ranking []scored, n int) (top, bottom []scored) {
	n = min(n, len(ranking)/2)
	if n < 1 {
		n = 1
	}
	n = min(n, len(ranking))
	return ranking[:n], ranking[len(ranking)-n:]
}
