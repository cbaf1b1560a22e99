package ifo

// SlideCheck reports where a trigger time sits within the unvetoed segments.
type SlideCheck struct {
	Time int64
	// Distance to the nearer edge of the containing segment.
	Distance int64
	Inside   bool
	// Clear is true when Distance is at least half the minimum length, i.e.
	// a MinLen window centred on Time fits in unvetoed time.
	Clear bool
}

// CheckTimes verifies each time against the unvetoed segments of d.
func CheckTimes(d *IFO, times []int64) []SlideCheck {
	out := make([]SlideCheck, len(times))
	for i, t := range times {
		dist, ok := d.unvetoed.TimeIn(t)
		out[i] = SlideCheck{
			Time:     t,
			Distance: dist,
			Inside:   ok,
			Clear:    ok && dist >= d.minlen/2,
		}
	}
	return out
}
