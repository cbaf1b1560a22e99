// Package segments implements the GPS time-segment algebra used to find
// usable detector time: intersection, complement, union and veto removal
// over sorted segment lists.
//
// Segments are integer GPS second intervals [Start, End]. A List is always
// sorted by start time and is never modified after construction; every
// operation returns a fresh List.
package segments

// Segment is one science or veto interval as found in a 4-column segment
// file: id, GPS start, GPS end, duration.
type Segment struct {
	ID     int64
	Start  int64
	End    int64
	Length int64
}

// NewSegment builds a segment whose Length is End-Start clamped at zero.
func NewSegment(id, start, end int64) Segment {
	return Segment{ID: id, Start: start, End: end, Length: max(end-start, 0)}
}

// IsEmpty reports whether the segment covers no time.
func (s Segment) IsEmpty() bool {
	return s.Start >= s.End
}

// Intersect returns the overlap of s and o, keeping the id of s. The result
// is empty (see IsEmpty) when the two do not overlap.
func (s Segment) Intersect(o Segment) Segment {
	return NewSegment(s.ID, max(s.Start, o.Start), min(s.End, o.End))
}

// IntersectList intersects s with every segment in others and returns the
// non-empty overlaps, numbered sequentially from id0.
func (s Segment) IntersectList(id0 int64, others []Segment) []Segment {
	var out []Segment
	id := id0
	for _, o := range others {
		seg := s.Intersect(o)
		if seg.IsEmpty() {
			continue
		}
		seg.ID = id
		id++
		out = append(out, seg)
	}
	return out
}

// HasTime returns 0 when t lies in [Start, End] and the distance from t to
// the nearer boundary otherwise.
func (s Segment) HasTime(t int64) int64 {
	switch {
	case t < s.Start:
		return s.Start - t
	case t > s.End:
		return t - s.End
	default:
		return 0
	}
}

// Row returns the segment in file column order.
func (s Segment) Row() []int64 {
	return []int64{s.ID, s.Start, s.End, s.Length}
}

// excludedTimes are GPS times known to be bad in the S6/VSR2-3 data. Any
// segment containing one of them is dropped by List.Intersect.
var excludedTimes = [...]int64{966951349, 967054240, 968021010}

// ExcludedTimes returns the fixed list of known-bad GPS times.
func ExcludedTimes() []int64 {
	out := make([]int64, len(excludedTimes))
	copy(out, excludedTimes[:])
	return out
}

func containsExcludedTime(s Segment) bool {
	for _, t := range excludedTimes {
		if s.HasTime(t) == 0 {
			return true
		}
	}
	return false
}
