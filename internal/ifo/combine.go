package ifo

import "github.com/gwprep/gwprep/internal/segments"

// Doubles combines two detectors into one coincident IFO: the science
// segments are intersected, the vetoes united and the larger of the two
// minimum lengths kept.
//
// With useUnvetoed the intersection runs over the already unvetoed long
// segments of each detector, which is much faster but loses the short and
// vetoed segments (the duration plots then only show unvetoed time).
func Doubles(a, b *IFO, useUnvetoed bool) (*IFO, error) {
	var segs *segments.List
	if useUnvetoed {
		segs = a.unvetoed.Intersect(b.unvetoed)
	} else {
		segs = a.all.Intersect(b.all)
	}
	vetoes := a.vetoes.Union(b.vetoes)
	return New(a.name+b.name, segs, vetoes, max(a.minlen, b.minlen))
}

// Triples combines three detectors by first building the double of a and b,
// then combining it with c.
func Triples(a, b, c *IFO, useUnvetoed bool) (*IFO, error) {
	ab, err := Doubles(a, b, useUnvetoed)
	if err != nil {
		return nil, err
	}
	return Doubles(ab, c, useUnvetoed)
}
