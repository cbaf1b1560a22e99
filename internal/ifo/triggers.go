package ifo

import (
	"fmt"

	"github.com/gwprep/gwprep/internal/columns"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
)

// Placement selects how trigger times are laid out inside a segment.
type Placement string

const (
	// PlaceEvery puts a trigger every Interval seconds, starting
	// MinLen-RMargin after the segment start and stopping RMargin before
	// its end.
	PlaceEvery Placement = ""
	// PlaceMiddle puts one trigger in the middle of every full MinLen chunk.
	PlaceMiddle Placement = "middle"
)

// ParsePlacement maps a command-line name onto a Placement. "every" and the
// empty string select PlaceEvery.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "every":
		return PlaceEvery, nil
	case string(PlaceMiddle):
		return PlaceMiddle, nil
	}
	return "", fmt.Errorf("unknown trigger placement %q", s)
}

// TrigOptions controls TrigTimes.
type TrigOptions struct {
	// Interval between triggers for PlaceEvery; <= 0 means MinLen.
	Interval int64
	Where    Placement
	// RMargin is the guard kept before the end of a segment.
	RMargin int64
	// Limit keeps only the first Limit times when > 0.
	Limit int
}

// DefaultTrigOptions returns PlaceEvery with a 2s end margin.
func DefaultTrigOptions() TrigOptions {
	return TrigOptions{RMargin: 2}
}

// TrigTimes lists candidate injection GPS times over the unvetoed segments.
// An unknown placement yields no times; it is logged but not an error.
func (d *IFO) TrigTimes(o TrigOptions) []int64 {
	step := o.Interval
	if step <= 0 {
		step = d.minlen
	}

	times := []int64{}
	switch o.Where {
	case PlaceEvery:
		for _, seg := range d.unvetoed.Segments() {
			for t := seg.Start + d.minlen - o.RMargin; t+o.RMargin <= seg.End; t += step {
				times = append(times, t)
			}
		}
	case PlaceMiddle:
		for _, seg := range d.unvetoed.Segments() {
			for t := seg.Start; t+d.minlen <= seg.End; t += d.minlen {
				times = append(times, t+d.minlen/2)
			}
		}
	default:
		monitoring.Logf("[ifo] Invalid placement %q for %s. Output times will be empty.", o.Where, d.name)
		return times
	}

	if o.Limit > 0 && len(times) > o.Limit {
		times = times[:o.Limit]
	}
	monitoring.Debugf("[ifo] %s: %d trigger times", d.name, len(times))
	return times
}

// WriteTimes writes one GPS time per line.
func WriteTimes(fsys fsutil.FileSystem, path string, times []int64) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := columns.WriteInts(f, times); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
