package segments

// Not returns the gaps of l inside [start, end]: the time before the first
// segment, between consecutive segments and after the last one. Segments
// reaching outside the range are clipped to it. Gap ids start at 0.
func (l *List) Not(start, end int64) *List {
	var gaps []Segment
	cursor := start
	for _, s := range l.segs {
		if cursor >= end {
			break
		}
		if s.Start > cursor {
			gaps = append(gaps, NewSegment(int64(len(gaps)), cursor, min(s.Start, end)))
		}
		cursor = max(cursor, s.End)
	}
	if cursor < end {
		gaps = append(gaps, NewSegment(int64(len(gaps)), cursor, end))
	}
	return NewListWithRange(gaps, start, end)
}

// Intersect returns the pairwise overlaps of l with other. Segments of l that
// contain one of the excluded GPS times are dropped first. Result ids count
// up from the id of the first segment of l.
func (l *List) Intersect(other *List) *List {
	if len(l.segs) == 0 {
		return NewList(nil)
	}
	id0 := l.segs[0].ID
	var out []Segment
	for _, s := range l.segs {
		if containsExcludedTime(s) {
			continue
		}
		out = append(out, s.IntersectList(id0+int64(len(out)), other.segs)...)
	}
	return NewList(out)
}

// Union merges two segment lists as not(not(l) ∩ not(other)) over the
// combined range of both. It is used to combine veto lists of different
// detectors.
//
// Union is commutative except near the excluded GPS times: Intersect drops
// gaps of l that contain one, so a gap of l around an excluded time is
// filled in the result while the same gap in other is not.
func (l *List) Union(other *List) *List {
	// An empty list has no meaningful range to widen the result with.
	if len(l.segs) == 0 {
		return NewListWithRange(other.segs, other.start, other.end)
	}
	if len(other.segs) == 0 {
		return NewListWithRange(l.segs, l.start, l.end)
	}
	start := min(l.start, other.start)
	end := max(l.end, other.end)
	return l.Not(start, end).Intersect(other.Not(start, end)).Not(start, end)
}

// Unvetoed removes the veto segments from l: the complement of vetoes over
// the range of l, intersected with l.
func (l *List) Unvetoed(vetoes *List) *List {
	return l.Intersect(vetoes.Not(l.start, l.end))
}
