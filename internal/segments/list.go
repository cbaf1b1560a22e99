package segments

import (
	"sort"

	"github.com/gwprep/gwprep/internal/monitoring"
)

// List is an ordered collection of segments for one detector (or detector
// combination) together with the overall [Start, End] range it describes.
type List struct {
	segs  []Segment
	start int64
	end   int64
}

// NewList sorts segs by start time. The range runs from the first start to
// the end of the last segment; an empty list has the range [0, 0].
func NewList(segs []Segment) *List {
	sorted := sortedCopy(segs)
	if len(sorted) == 0 {
		return &List{}
	}
	return &List{segs: sorted, start: sorted[0].Start, end: sorted[len(sorted)-1].End}
}

// NewListWithRange sorts segs by start time and records an explicit range.
func NewListWithRange(segs []Segment, start, end int64) *List {
	return &List{segs: sortedCopy(segs), start: start, end: end}
}

// FromRows builds a List from raw (id, start, end, length) rows.
func FromRows(rows [][4]int64) *List {
	segs := make([]Segment, len(rows))
	for i, r := range rows {
		segs[i] = Segment{ID: r[0], Start: r[1], End: r[2], Length: r[3]}
	}
	return NewList(segs)
}

func sortedCopy(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Len returns the number of segments.
func (l *List) Len() int { return len(l.segs) }

// Start returns the lower bound of the list's range.
func (l *List) Start() int64 { return l.start }

// End returns the upper bound of the list's range.
func (l *List) End() int64 { return l.end }

// Segments returns a copy of the segments in start order.
func (l *List) Segments() []Segment {
	out := make([]Segment, len(l.segs))
	copy(out, l.segs)
	return out
}

// Durations returns the Length column in start order.
func (l *List) Durations() []int64 {
	out := make([]int64, len(l.segs))
	for i, s := range l.segs {
		out[i] = s.Length
	}
	return out
}

// Fits keeps the segments whose Length is at least minlen and renumbers them
// 0..k-1. The range is preserved.
func (l *List) Fits(minlen int64) *List {
	var out []Segment
	for _, s := range l.segs {
		if s.Length < minlen {
			continue
		}
		s.ID = int64(len(out))
		out = append(out, s)
	}
	return NewListWithRange(out, l.start, l.end)
}

// HasTime returns 0 if t falls inside one of the segments. Otherwise it
// returns the distance from t to the closest segment, capped by the distance
// to the far end of the list's range.
func (l *List) HasTime(t int64) int64 {
	dist := max(abs(l.start-t), abs(l.end-t))
	for _, s := range l.segs {
		dist = min(dist, s.HasTime(t))
	}
	return dist
}

// TimeIn reports the distance from t to the nearer edge of the segment that
// strictly contains it. ok is false when no segment, or more than one
// segment, contains t.
func (l *List) TimeIn(t int64) (dist int64, ok bool) {
	var matches []Segment
	for _, s := range l.segs {
		if t > s.Start && t < s.End {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 1:
		s := matches[0]
		return min(t-s.Start, s.End-t), true
	case 0:
		return 0, false
	default:
		monitoring.Logf("[segments] Time %d contained in more than one segment!", t)
		return 0, false
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
