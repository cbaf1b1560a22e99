package segments

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spans drops ids so lists can be compared by covered time only.
func spans(l *List) [][2]int64 {
	out := make([][2]int64, 0, l.Len())
	for _, s := range l.Segments() {
		out = append(out, [2]int64{s.Start, s.End})
	}
	return out
}

func listOf(pairs ...[2]int64) *List {
	segs := make([]Segment, len(pairs))
	for i, p := range pairs {
		segs[i] = NewSegment(int64(i), p[0], p[1])
	}
	return NewList(segs)
}

func TestNewListSortsByStart(t *testing.T) {
	t.Parallel()

	l := FromRows([][4]int64{
		{0, 300, 400, 100},
		{1, 100, 150, 50},
		{2, 200, 260, 60},
	})
	assert.Equal(t, [][2]int64{{100, 150}, {200, 260}, {300, 400}}, spans(l))
	assert.Equal(t, int64(100), l.Start())
	assert.Equal(t, int64(400), l.End())
	assert.Equal(t, []int64{50, 60, 100}, l.Durations())

	empty := NewList(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, int64(0), empty.Start())
	assert.Equal(t, int64(0), empty.End())
}

func TestFits(t *testing.T) {
	t.Parallel()

	l := NewListWithRange([]Segment{
		{ID: 10, Start: 0, End: 5, Length: 5},
		{ID: 11, Start: 10, End: 40, Length: 30},
		{ID: 12, Start: 50, End: 60, Length: 10},
		{ID: 13, Start: 70, End: 170, Length: 100},
	}, -10, 200)

	got := l.Fits(10)
	want := []Segment{
		{ID: 0, Start: 10, End: 40, Length: 30},
		{ID: 1, Start: 50, End: 60, Length: 10},
		{ID: 2, Start: 70, End: 170, Length: 100},
	}
	if diff := cmp.Diff(want, got.Segments()); diff != "" {
		t.Errorf("Fits(10) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(-10), got.Start())
	assert.Equal(t, int64(200), got.End())

	for _, s := range l.Fits(31).Segments() {
		assert.GreaterOrEqual(t, s.Length, int64(31))
	}
	assert.Equal(t, 0, l.Fits(1000).Len())
}

func TestNot(t *testing.T) {
	t.Parallel()

	l := listOf([2]int64{10, 20}, [2]int64{30, 50}, [2]int64{70, 90})

	not := l.Not(0, 100)
	assert.Equal(t, [][2]int64{{0, 10}, {20, 30}, {50, 70}, {90, 100}}, spans(not))
	for i, s := range not.Segments() {
		assert.Equal(t, int64(i), s.ID)
	}
	assert.Equal(t, int64(0), not.Start())
	assert.Equal(t, int64(100), not.End())

	// double complement restores the original segments
	assert.Equal(t, spans(l), spans(not.Not(0, 100)))
}

func TestNotEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		list       *List
		start, end int64
		want       [][2]int64
	}{
		{
			name:  "empty list is one gap",
			list:  NewList(nil),
			start: 5, end: 25,
			want: [][2]int64{{5, 25}},
		},
		{
			name:  "segments flush with the range",
			list:  listOf([2]int64{0, 10}, [2]int64{90, 100}),
			start: 0, end: 100,
			want: [][2]int64{{10, 90}},
		},
		{
			name:  "segments outside the range are clipped",
			list:  listOf([2]int64{0, 50}, [2]int64{150, 160}, [2]int64{300, 400}),
			start: 100, end: 200,
			want: [][2]int64{{100, 150}, {160, 200}},
		},
		{
			name:  "overlapping segments",
			list:  listOf([2]int64{10, 40}, [2]int64{20, 30}, [2]int64{35, 50}),
			start: 0, end: 60,
			want: [][2]int64{{0, 10}, {50, 60}},
		},
		{
			name:  "fully covered",
			list:  listOf([2]int64{0, 100}),
			start: 10, end: 90,
			want: [][2]int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spans(tt.list.Not(tt.start, tt.end)))
		})
	}
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	a := NewList([]Segment{NewSegment(4, 0, 100), NewSegment(5, 200, 300)})
	b := listOf([2]int64{50, 120}, [2]int64{150, 220}, [2]int64{250, 260}, [2]int64{290, 400})

	got := a.Intersect(b)
	want := []Segment{
		{ID: 4, Start: 50, End: 100, Length: 50},
		{ID: 5, Start: 200, End: 220, Length: 20},
		{ID: 6, Start: 250, End: 260, Length: 10},
		{ID: 7, Start: 290, End: 300, Length: 10},
	}
	if diff := cmp.Diff(want, got.Segments()); diff != "" {
		t.Errorf("Intersect mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(50), got.Start())
	assert.Equal(t, int64(300), got.End())

	assert.Equal(t, 0, NewList(nil).Intersect(b).Len())
	assert.Equal(t, 0, a.Intersect(NewList(nil)).Len())
}

func TestIntersectWithSelf(t *testing.T) {
	t.Parallel()

	l := listOf([2]int64{966000000, 966000500}, [2]int64{966001000, 966002000}, [2]int64{966003000, 966003100})
	assert.Equal(t, spans(l), spans(l.Intersect(l)))
}

func TestIntersectDropsExcludedTimes(t *testing.T) {
	t.Parallel()

	l := listOf(
		[2]int64{966951000, 966951400}, // contains 966951349
		[2]int64{966952000, 966953000},
		[2]int64{968021010, 968022000}, // starts on 968021010
	)
	assert.Equal(t, [][2]int64{{966952000, 966953000}}, spans(l.Intersect(l)))

	// only the left-hand list is filtered
	other := listOf([2]int64{966950000, 966960000})
	got := other.Intersect(l)
	assert.Equal(t, 0, got.Len())
}

func TestUnion(t *testing.T) {
	t.Parallel()

	a := listOf([2]int64{10, 20}, [2]int64{40, 60})
	b := listOf([2]int64{15, 30}, [2]int64{55, 80}, [2]int64{90, 95})

	ab := a.Union(b)
	ba := b.Union(a)
	want := [][2]int64{{10, 30}, {40, 80}, {90, 95}}
	assert.Equal(t, want, spans(ab))
	assert.Equal(t, spans(ab), spans(ba))
	assert.Equal(t, int64(10), ab.Start())
	assert.Equal(t, int64(95), ab.End())
}

func TestUnionNearExcludedTimeDependsOnOrder(t *testing.T) {
	t.Parallel()

	a := listOf(
		[2]int64{966950000, 966950100},
		[2]int64{966951000, 966951600}, // covers 966951349
		[2]int64{966952000, 966952100},
	)
	b := listOf(
		[2]int64{966950000, 966950100},
		[2]int64{966952000, 966952100},
	)

	// the gap of a does not hold the excluded time, so a wins
	assert.Equal(t, spans(a), spans(a.Union(b)))
	// the single gap of b holds it and is dropped, filling the whole range
	assert.Equal(t, [][2]int64{{966950000, 966952100}}, spans(b.Union(a)))
}

func TestUnionCoversInputs(t *testing.T) {
	t.Parallel()

	a := listOf([2]int64{100, 110}, [2]int64{200, 260}, [2]int64{300, 301})
	b := listOf([2]int64{105, 120}, [2]int64{250, 270}, [2]int64{400, 450})
	u := a.Union(b)

	covered := func(l *List, t int64) bool {
		for _, s := range l.Segments() {
			if t >= s.Start && t < s.End {
				return true
			}
		}
		return false
	}
	for ts := int64(90); ts < 460; ts++ {
		assert.Equal(t, covered(a, ts) || covered(b, ts), covered(u, ts), "time %d", ts)
	}
}

func TestUnionWithEmpty(t *testing.T) {
	t.Parallel()

	vetoes := listOf([2]int64{966900000, 966900100})
	got := NewList(nil).Union(vetoes)
	assert.Equal(t, spans(vetoes), spans(got))
	assert.Equal(t, vetoes.Start(), got.Start())

	got = vetoes.Union(NewList(nil))
	assert.Equal(t, spans(vetoes), spans(got))
}

func TestUnvetoed(t *testing.T) {
	t.Parallel()

	t.Run("no vetoes", func(t *testing.T) {
		l := FromRows([][4]int64{{0, 0, 100, 100}})
		assert.Equal(t, [][2]int64{{0, 100}}, spans(l.Unvetoed(NewList(nil))))
	})

	t.Run("veto inside a segment", func(t *testing.T) {
		l := FromRows([][4]int64{{0, 0, 100, 100}})
		vetoes := FromRows([][4]int64{{0, 40, 50, 10}})
		assert.Equal(t, [][2]int64{{0, 40}, {50, 100}}, spans(l.Unvetoed(vetoes)))
	})

	t.Run("vetoes beyond the science range", func(t *testing.T) {
		l := FromRows([][4]int64{{0, 100, 200, 100}})
		vetoes := listOf([2]int64{0, 50}, [2]int64{150, 160}, [2]int64{300, 400})
		assert.Equal(t, [][2]int64{{100, 150}, {160, 200}}, spans(l.Unvetoed(vetoes)))
	})

	t.Run("veto covering everything", func(t *testing.T) {
		l := FromRows([][4]int64{{0, 100, 200, 100}})
		vetoes := listOf([2]int64{0, 1000})
		assert.Equal(t, 0, l.Unvetoed(vetoes).Len())
	})
}

func TestListHasTime(t *testing.T) {
	t.Parallel()

	l := listOf([2]int64{100, 200}, [2]int64{300, 400})
	assert.Equal(t, int64(0), l.HasTime(150))
	assert.Equal(t, int64(0), l.HasTime(300))
	assert.Equal(t, int64(50), l.HasTime(250))
	assert.Equal(t, int64(10), l.HasTime(410))
}

func TestTimeIn(t *testing.T) {
	t.Parallel()

	l := listOf([2]int64{100, 200}, [2]int64{300, 400})

	dist, ok := l.TimeIn(130)
	require.True(t, ok)
	assert.Equal(t, int64(30), dist)

	dist, ok = l.TimeIn(390)
	require.True(t, ok)
	assert.Equal(t, int64(10), dist)

	_, ok = l.TimeIn(250)
	assert.False(t, ok)

	// boundaries are not strictly inside
	_, ok = l.TimeIn(100)
	assert.False(t, ok)

	overlapping := listOf([2]int64{0, 100}, [2]int64{50, 150})
	_, ok = overlapping.TimeIn(75)
	assert.False(t, ok)
}
