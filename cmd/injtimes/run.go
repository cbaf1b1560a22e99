package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/gwprep/gwprep/internal/config"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/ifo"
	"github.com/gwprep/gwprep/internal/manifest"
	"github.com/gwprep/gwprep/internal/monitoring"
	"github.com/gwprep/gwprep/internal/report"
	"github.com/gwprep/gwprep/internal/security"
	"github.com/gwprep/gwprep/internal/timeutil"
)

type runner struct {
	cfg         *config.InjTimesConfig
	where       ifo.Placement
	maxDuration int64
	fs          fsutil.FileSystem
	clock       timeutil.Clock

	man *manifest.Manifest
}

// pairs lists the detector index pairs combined into doubles.
func pairs(n int) ([][2]int, error) {
	switch n {
	case 2:
		return [][2]int{{0, 1}}, nil
	case 3:
		return [][2]int{{0, 1}, {1, 2}, {0, 2}}, nil
	}
	return nil, fmt.Errorf("doubles need 2 or 3 detectors, got %d", n)
}

func (r *runner) run() (string, error) {
	cfg := r.cfg
	if len(cfg.IFOs) == 0 {
		return "", fmt.Errorf("no detectors given")
	}
	if err := security.ValidateDetectorNames(cfg.IFOs); err != nil {
		return "", err
	}
	if len(cfg.SegFiles) != len(cfg.IFOs) || len(cfg.VetoFiles) != len(cfg.IFOs) {
		return "", fmt.Errorf("need one segment file and one veto file per detector (%d detectors, %d segment files, %d veto files)",
			len(cfg.IFOs), len(cfg.SegFiles), len(cfg.VetoFiles))
	}

	outFolder := cfg.GetOutFolder()
	minlen := cfg.MinLen()
	monitoring.Logf("[injtimes] minlen=%d psdlength=%d length=%d", minlen, cfg.GetPSDLength(), cfg.GetLength())

	r.man = manifest.New("injtimes", r.clock)
	r.man.SetParam("ifos", cfg.IFOs)
	r.man.SetParam("minlen", minlen)
	r.man.SetParam("timeslides", cfg.GetTimeslides())
	r.man.SetParam("debug", monitoring.DebugEnabled())

	if err := fsutil.EnsureDir(r.fs, outFolder); err != nil {
		return "", err
	}

	detectors := make([]*ifo.IFO, len(cfg.IFOs))
	for i, name := range cfg.IFOs {
		d, err := ifo.Load(r.fs, name, cfg.SegFiles[i], cfg.VetoFiles[i], minlen)
		if err != nil {
			return "", err
		}
		detectors[i] = d
		if err := r.writeUnvetoed(d); err != nil {
			return "", err
		}
	}

	if cfg.GetTimeslides() {
		if err := r.timeslides(detectors); err != nil {
			return "", err
		}
	} else if !cfg.GetNoDouble() {
		if err := r.coincidences(detectors); err != nil {
			return "", err
		}
	}

	return r.man.Finish(r.fs, outFolder)
}

func (r *runner) timeslides(detectors []*ifo.IFO) error {
	cfg := r.cfg
	outFolder := cfg.GetOutFolder()

	sets := make([]ifo.TriggerSet, len(detectors))
	for i, d := range detectors {
		if cfg.GetPlot() {
			if err := r.plot(d.DurationFigure(r.maxDuration), filepath.Join(outFolder, "singleseg_"+d.Name())); err != nil {
				return err
			}
		}
		times := d.TrigTimes(ifo.TrigOptions{Interval: cfg.GetLength(), Where: ifo.PlaceMiddle})
		if cfg.GetCheck() {
			monitoring.Logf("[injtimes] %d %s: %d trigger times", i, d.Name(), len(times))
			for _, c := range ifo.CheckTimes(d, times) {
				monitoring.Logf("[injtimes] %d %d %t", c.Time, c.Distance, c.Clear)
			}
		}
		sets[i] = ifo.TriggerSet{IFO: d.Name(), Times: times}
	}

	ref := cfg.GetReference()
	if cfg.Reference == nil && !slices.Contains(cfg.IFOs, ref) {
		ref = cfg.IFOs[0]
	}
	seed := cfg.GetSeed()
	if seed == 0 {
		seed = uint64(r.clock.Now().UnixNano())
	}
	r.man.SetParam("reference", ref)
	r.man.SetParam("seed", strconv.FormatUint(seed, 10))
	r.man.SetParam("ninj", cfg.GetNInj())

	dir := filepath.Join(outFolder, "timeslides")
	if err := fsutil.EnsureDir(r.fs, dir); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ts, err := ifo.GenerateTimeslides(sets, cfg.GetNInj(), ref, rng)
	if err != nil {
		return err
	}
	injPath, slidePath, err := ts.WriteFiles(r.fs, dir)
	if err != nil {
		return err
	}
	r.man.AddOutput(injPath, slidePath)
	return nil
}

func (r *runner) coincidences(detectors []*ifo.IFO) error {
	cfg := r.cfg
	idx, err := pairs(len(detectors))
	if err != nil {
		return err
	}

	doubles := make([]*ifo.IFO, 0, len(idx))
	for _, p := range idx {
		d, err := ifo.Doubles(detectors[p[0]], detectors[p[1]], true)
		if err != nil {
			return err
		}
		doubles = append(doubles, d)
	}

	var triple *ifo.IFO
	if !cfg.GetNoTriple() && len(detectors) == 3 {
		triple, err = ifo.Doubles(doubles[0], detectors[2], false)
		if err != nil {
			return err
		}
	}

	for _, d := range doubles {
		if err := r.writeTimes(d, "doubleseg_"); err != nil {
			return err
		}
	}
	if triple != nil {
		if err := r.writeTimes(triple, "tripleseg_"); err != nil {
			return err
		}
	}
	return nil
}

// writeUnvetoed writes unvetoed_<name>.dat when -unvetoed is set.
func (r *runner) writeUnvetoed(d *ifo.IFO) error {
	if !r.cfg.GetUnvetoed() {
		return nil
	}
	path := filepath.Join(r.cfg.GetOutFolder(), "unvetoed_"+d.Name()+".dat")
	if err := d.WriteUnvetoed(r.fs, path); err != nil {
		return err
	}
	r.man.AddOutput(path)
	return nil
}

// writeTimes writes injtimes_<name>_<minlen>.dat for d and, with -plot, its
// duration plot under plotPrefix.
func (r *runner) writeTimes(d *ifo.IFO, plotPrefix string) error {
	if err := r.writeUnvetoed(d); err != nil {
		return err
	}

	outFolder := r.cfg.GetOutFolder()
	path := filepath.Join(outFolder, fmt.Sprintf("injtimes_%s_%d.dat", d.Name(), d.MinLen()))
	opts := ifo.DefaultTrigOptions()
	opts.Where = r.where
	opts.Limit = r.cfg.GetLimit()
	if err := ifo.WriteTimes(r.fs, path, d.TrigTimes(opts)); err != nil {
		return err
	}
	r.man.AddOutput(path)

	if r.cfg.GetPlot() {
		return r.plot(d.DurationFigure(r.maxDuration), filepath.Join(outFolder, plotPrefix+d.Name()))
	}
	return nil
}

// plot writes base.png and an interactive base.html.
func (r *runner) plot(fig report.Figure, base string) error {
	if err := fig.SavePNG(r.fs, base+".png"); err != nil {
		return err
	}
	if err := fig.SaveHTML(r.fs, base+".html"); err != nil {
		return err
	}
	r.man.AddOutput(base+".png", base+".html")
	return nil
}
