package stats

type (
	BucketCount     = bucketCount
	UserBucketCount = userBucketCount
	CorrOptions     = corrOptions
	Scored          = scored
)

var (
	HourlySeries       = hourlySeries
	DailySeries        = dailySeries
	ByHourOfDay        = byHourOfDay
	WeeklyByHourOfDay  = weeklyByHourOfDay
	ByWeekday          = byWeekday
	HourWeekdayPercent = hourWeekdayPercent
	RollingMean        = rollingMean
	DefaultAverages    = defaultAverages
	Correlations       = correlations
	Ranks              = ranks
	Extremes           = extremes
	Median             = median
)

// HoldUsersLock takes the identity lock until the returned func is called.
func (r *Runner) HoldUsersLock() (release func()) {
	if !r.usersLock.TryAcquire(1) {
		panic("identity lock already held")
	}
	return func() { r.usersLock.Release(1) }
}

func (s Statistic) Defaults() Params { return s.defaults() }
