// Package ifo models an interferometer (or a coincident combination of
// several) as science segments plus veto segments, and derives the unvetoed
// time in which injections can be placed.
package ifo

import (
	"errors"
	"fmt"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
	"github.com/gwprep/gwprep/internal/report"
	"github.com/gwprep/gwprep/internal/segments"
)

// ErrInvalidMinLen is returned for a minimum segment length below one second.
var ErrInvalidMinLen = errors.New("minimum segment length must be at least 1s")

// IFO couples the raw segments of a detector with its vetoes. The unvetoed
// list is recomputed whenever the vetoes or the minimum length change.
type IFO struct {
	name     string
	minlen   int64
	all      *segments.List
	segments *segments.List
	vetoes   *segments.List
	unvetoed *segments.List
}

// New builds an IFO and computes its unvetoed segments.
func New(name string, all, vetoes *segments.List, minlen int64) (*IFO, error) {
	if all == nil || vetoes == nil {
		return nil, fmt.Errorf("ifo %s: segments and vetoes are required", name)
	}
	if minlen < 1 {
		return nil, fmt.Errorf("ifo %s: %w, got %d", name, ErrInvalidMinLen, minlen)
	}
	d := &IFO{name: name, minlen: minlen, all: all, vetoes: vetoes}
	d.refresh()
	monitoring.Logf("[ifo] Number of unvetoed segments that fit %d for %s: %d", d.minlen, d.name, d.unvetoed.Len())
	return d, nil
}

// Load reads the segment and veto files of one detector.
func Load(fsys fsutil.FileSystem, name, segPath, vetoPath string, minlen int64) (*IFO, error) {
	monitoring.Logf("[ifo] Reading segments for %s", name)
	all, err := segments.ReadFile(fsys, segPath)
	if err != nil {
		return nil, fmt.Errorf("ifo %s: %w", name, err)
	}
	monitoring.Logf("[ifo] Reading veto segments for %s", name)
	vetoes, err := segments.ReadFile(fsys, vetoPath)
	if err != nil {
		return nil, fmt.Errorf("ifo %s: %w", name, err)
	}
	return New(name, all, vetoes, minlen)
}

func (d *IFO) refresh() {
	d.segments = d.all.Fits(d.minlen)
	d.unvetoed = d.segments.Unvetoed(d.vetoes).Fits(d.minlen)
}

// Name returns the detector name, e.g. "H1" or "H1L1".
func (d *IFO) Name() string { return d.name }

// MinLen returns the minimum usable segment length in seconds.
func (d *IFO) MinLen() int64 { return d.minlen }

// AllSegments returns every science segment as read.
func (d *IFO) AllSegments() *segments.List { return d.all }

// Segments returns the science segments at least MinLen long.
func (d *IFO) Segments() *segments.List { return d.segments }

// Vetoes returns the veto segments.
func (d *IFO) Vetoes() *segments.List { return d.vetoes }

// Unvetoed returns the veto-free segments at least MinLen long.
func (d *IFO) Unvetoed() *segments.List { return d.unvetoed }

// SetVetoes replaces the veto list and recomputes the unvetoed segments.
func (d *IFO) SetVetoes(vetoes *segments.List) {
	d.vetoes = vetoes
	d.refresh()
}

// SetMinLen changes the minimum length and recomputes the unvetoed segments.
func (d *IFO) SetMinLen(minlen int64) error {
	if minlen < 1 {
		return fmt.Errorf("ifo %s: %w, got %d", d.name, ErrInvalidMinLen, minlen)
	}
	d.minlen = minlen
	d.refresh()
	return nil
}

// WriteUnvetoed writes the unvetoed segments as a 4-column table.
func (d *IFO) WriteUnvetoed(fsys fsutil.FileSystem, path string) error {
	return segments.WriteFile(fsys, path, d.unvetoed)
}

// DurationFigure returns the cumulative length distribution of the long
// science segments against the unvetoed ones.
func (d *IFO) DurationFigure(maxdur int64) report.Figure {
	return report.Figure{
		Title:       "Segment length distribution for " + d.name,
		MaxDuration: maxdur,
		Series: []report.Series{
			{Label: fmt.Sprintf("All segments (%d)", d.segments.Len()), Durations: d.segments.Durations()},
			{Label: fmt.Sprintf("Unvetoed segments (%d)", d.unvetoed.Len()), Durations: d.unvetoed.Durations()},
		},
	}
}
