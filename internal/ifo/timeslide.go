package ifo

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gwprep/gwprep/internal/columns"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
)

var (
	// ErrEmptyPool is returned when a detector has no trigger times to
	// sample from.
	ErrEmptyPool = errors.New("no candidate trigger times")
	// ErrUnknownReference is returned when the reference detector is not
	// one of the trigger sets.
	ErrUnknownReference = errors.New("reference detector not in trigger sets")
)

// TriggerSet is the pool of candidate trigger times of one detector.
type TriggerSet struct {
	IFO   string
	Times []int64
}

// Timeslides holds n injections: the reference detector's GPS times and,
// per detector, the offset of its own sampled time from the reference.
type Timeslides struct {
	IFOs      []string
	Reference string
	InjTimes  []int64
	Slides    map[string][]int64
}

// GenerateTimeslides draws n injections. For every injection each detector
// independently samples one time from its own pool, with replacement. The
// reference detector's draws become the injection times and every other
// detector's slide is its draw minus the reference draw. An empty ref picks
// the first set.
func GenerateTimeslides(sets []TriggerSet, n int, ref string, rng *rand.Rand) (*Timeslides, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("timeslides: %w", ErrEmptyPool)
	}
	if n < 0 {
		return nil, fmt.Errorf("timeslides: negative injection count %d", n)
	}
	if ref == "" {
		ref = sets[0].IFO
	}

	ifos := make([]string, len(sets))
	draws := make(map[string][]int64, len(sets))
	for i, s := range sets {
		if _, dup := draws[s.IFO]; dup {
			return nil, fmt.Errorf("timeslides: duplicate detector %s", s.IFO)
		}
		if len(s.Times) == 0 {
			return nil, fmt.Errorf("timeslides: %s: %w", s.IFO, ErrEmptyPool)
		}
		ifos[i] = s.IFO
		draws[s.IFO] = make([]int64, 0, n)
	}
	if _, ok := draws[ref]; !ok {
		return nil, fmt.Errorf("timeslides: %s: %w", ref, ErrUnknownReference)
	}

	for i := 0; i < n; i++ {
		for _, s := range sets {
			draws[s.IFO] = append(draws[s.IFO], s.Times[rng.IntN(len(s.Times))])
		}
	}

	ts := &Timeslides{
		IFOs:      ifos,
		Reference: ref,
		InjTimes:  draws[ref],
		Slides:    make(map[string][]int64, len(sets)),
	}
	for _, name := range ifos {
		slide := make([]int64, n)
		for i := range slide {
			slide[i] = draws[name][i] - draws[ref][i]
		}
		ts.Slides[name] = slide
	}
	return ts, nil
}

// Label names the output files, e.g. "H1L1V1_1000".
func (ts *Timeslides) Label() string {
	return strings.Join(ts.IFOs, "") + "_" + strconv.Itoa(len(ts.InjTimes))
}

// SlideRows returns one row per injection with a column per detector.
func (ts *Timeslides) SlideRows() [][]int64 {
	rows := make([][]int64, len(ts.InjTimes))
	for i := range rows {
		row := make([]int64, len(ts.IFOs))
		for j, name := range ts.IFOs {
			row[j] = ts.Slides[name][i]
		}
		rows[i] = row
	}
	return rows
}

// WriteFiles writes injtimes_<label>.dat (one GPS time per line) and
// timeslides_<label>.dat (a header of detector names, then one row of
// offsets per injection) into dir.
func (ts *Timeslides) WriteFiles(fsys fsutil.FileSystem, dir string) (injPath, slidePath string, err error) {
	label := ts.Label()
	injPath = filepath.Join(dir, "injtimes_"+label+".dat")
	slidePath = filepath.Join(dir, "timeslides_"+label+".dat")

	monitoring.Debugf("[ifo] injection times: %v", ts.InjTimes)
	monitoring.Debugf("[ifo] slides: %v", ts.Slides)

	if err := WriteTimes(fsys, injPath, ts.InjTimes); err != nil {
		return "", "", err
	}

	f, err := fsys.Create(slidePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", slidePath, err)
	}
	if _, err := fmt.Fprintln(f, strings.Join(ts.IFOs, " ")); err != nil {
		f.Close()
		return "", "", fmt.Errorf("failed to write %s: %w", slidePath, err)
	}
	if err := columns.WriteIntRows(f, ts.SlideRows()); err != nil {
		f.Close()
		return "", "", fmt.Errorf("failed to write %s: %w", slidePath, err)
	}
	if err := f.Close(); err != nil {
		return "", "", err
	}
	return injPath, slidePath, nil
}
