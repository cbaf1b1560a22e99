package roq

import (
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/blas/cblas128"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
)

// Default reduced-basis dimensions.
const (
	DefaultBasisRows = 31489
	DefaultBasisCols = 965
)

// GridSizeFile holds the shared tc grid point count.
const GridSizeFile = "Num_tc_sub_domains.dat"

// Params are the run-wide settings shared by every detector.
type Params struct {
	Seglen    float64 `json:"seglen"`
	TimePrior float64 `json:"time_prior"`
	FLow      float64 `json:"f_low"`
	DeltaTc   float64 `json:"delta_tc"`
}

// Input names one detector's data and PSD files.
type Input struct {
	IFO      string
	DataPath string
	PSDPath  string
}

// Result is the weight matrix of one detector, [nbasis x ntc].
type Result struct {
	IFO      string
	Weights  cblas128.General
	GridSize int
}

// Builder computes weights for a sequence of detectors against one basis.
type Builder struct {
	Params Params
	Basis  cblas128.General
	InvV   cblas128.General
	FS     fsutil.FileSystem
}

// LoadMatrix reads a raw complex matrix file of the given shape.
func LoadMatrix(fsys fsutil.FileSystem, path string, rows, cols int) (cblas128.General, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return cblas128.General{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	m, err := ReadComplexMatrix(f, rows, cols)
	if err != nil {
		return cblas128.General{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WeightsPath is the output file for ifo's weights.
func WeightsPath(outDir, ifo string) string {
	return filepath.Join(outDir, "weights_"+ifo+".dat")
}

// Detector computes the weights for a single detector.
func (b *Builder) Detector(in Input) (*Result, error) {
	series, err := readFrequencySeriesFile(b.FS, in.DataPath)
	if err != nil {
		return nil, err
	}
	psd, err := readPSDFile(b.FS, in.PSDPath)
	if err != nil {
		return nil, err
	}

	freq, data, deltaF, err := Whiten(series, psd, b.Params.FLow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.IFO, err)
	}
	if len(data) != b.Basis.Rows {
		return nil, fmt.Errorf("%s: %d samples above f_low, basis has %d rows: %w", in.IFO, len(data), b.Basis.Rows, ErrShapeMismatch)
	}

	tcs, err := TimeGrid(b.Params.Seglen, b.Params.TimePrior, b.Params.DeltaTc)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("[roq] time steps = %d", len(tcs))

	shifted := ShiftMatrix(freq, data, tcs)

	monitoring.Logf("[roq] Computing weights for %s", in.IFO)
	w, err := BuildWeights(shifted, b.Basis, b.InvV, deltaF)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.IFO, err)
	}
	monitoring.Debugf("[roq] Weights have been computed for %s", in.IFO)

	return &Result{IFO: in.IFO, Weights: w, GridSize: len(tcs)}, nil
}

// Run computes and writes weights_<ifo>.dat for every input, then writes the
// tc grid size to Num_tc_sub_domains.dat. It returns that grid size.
func (b *Builder) Run(inputs []Input, outDir string) (int, error) {
	if len(inputs) == 0 {
		return 0, errors.New("no detectors to process")
	}
	if err := fsutil.EnsureDir(b.FS, outDir); err != nil {
		return 0, err
	}

	gridSize := 0
	for _, in := range inputs {
		res, err := b.Detector(in)
		if err != nil {
			return 0, err
		}
		if err := b.writeWeights(WeightsPath(outDir, in.IFO), res.Weights); err != nil {
			return 0, err
		}
		gridSize = res.GridSize
	}

	path := filepath.Join(outDir, GridSizeFile)
	f, err := b.FS.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteGridSize(f, gridSize); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return gridSize, nil
}

func (b *Builder) writeWeights(path string, w cblas128.General) error {
	f, err := b.FS.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteComplexMatrix(f, w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
