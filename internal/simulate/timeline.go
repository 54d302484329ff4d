package simulate

import "time"

// timeline produces the non-decreasing simulated clock for a generation run.
// Jitter is uniform over [min, max] at second granularity, so consecutive
// timestamps are strictly increasing whenever min > 0.
type timeline struct {
	now      time.Time
	min, max time.Duration
}

func newTimeline(start time.Time, min, max time.Duration) *timeline {
	return &timeline{now: start.UTC(), min: min, max: max}
}

func (t *timeline) Now() time.Time {
	return t.now
}

func (t *timeline) Advance(rng Rand) {
	span := int((t.max-t.min)/time.Second) + 1
	t.now = t.now.Add(t.min + time.Duration(rng.Intn(span))*time.Second)
}
