package roq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GuardBand pads the time prior on each side of the tc window, in seconds.
const GuardBand = 0.022

// tcOffset is how far before the end of the segment the trigger sits.
const tcOffset = 2.0

// GridSize is the number of tc grid points needed to cover a time prior of
// half-width dt (plus guard band) with a spacing of at most deltaTc.
func GridSize(dt, deltaTc float64) (int, error) {
	if deltaTc <= 0 || math.IsNaN(deltaTc) {
		return 0, fmt.Errorf("delta_tc must be positive, got %g", deltaTc)
	}
	if dt < 0 || math.IsNaN(dt) {
		return 0, fmt.Errorf("time prior must be non-negative, got %g", dt)
	}
	return int(math.Ceil(2 * (dt + GuardBand) / deltaTc)), nil
}

// TimeGrid returns evenly spaced coalescence-time offsets spanning
// seglen-2 ± (dt+GuardBand), endpoints included.
func TimeGrid(seglen, dt, deltaTc float64) ([]float64, error) {
	n, err := GridSize(dt, deltaTc)
	if err != nil {
		return nil, err
	}
	tc := seglen - tcOffset
	lo, hi := tc-dt-GuardBand, tc+dt+GuardBand
	switch n {
	case 0:
		return []float64{}, nil
	case 1:
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}
