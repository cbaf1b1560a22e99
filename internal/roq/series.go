// Package roq computes reduced-order-quadrature weights for one detector's
// frequency-domain strain: the data is whitened by the PSD, shifted over a
// grid of coalescence times and projected onto a reduced basis.
package roq

import (
	"errors"
	"fmt"
	"io"

	"github.com/gwprep/gwprep/internal/columns"
	"github.com/gwprep/gwprep/internal/fsutil"
)

// ErrShapeMismatch is returned when array lengths or matrix dimensions do not
// line up.
var ErrShapeMismatch = errors.New("shape mismatch")

// FrequencySeries is complex strain sampled on a regular frequency grid.
type FrequencySeries struct {
	Freq []float64
	Data []complex128
}

// DeltaF is the spacing of the frequency grid.
func (s FrequencySeries) DeltaF() (float64, error) {
	if len(s.Freq) < 2 {
		return 0, fmt.Errorf("frequency series has %d samples: %w", len(s.Freq), ErrShapeMismatch)
	}
	df := s.Freq[1] - s.Freq[0]
	if df <= 0 {
		return 0, fmt.Errorf("non-increasing frequency grid (df=%g)", df)
	}
	return df, nil
}

// ReadFrequencySeries reads "frequency real imag" rows.
func ReadFrequencySeries(r io.Reader) (FrequencySeries, error) {
	cols, err := columns.ReadFloatColumns(r, 3)
	if err != nil {
		return FrequencySeries{}, fmt.Errorf("failed to read frequency series: %w", err)
	}
	s := FrequencySeries{Freq: cols[0], Data: make([]complex128, len(cols[0]))}
	for i := range s.Data {
		s.Data[i] = complex(cols[1][i], cols[2][i])
	}
	return s, nil
}

// ReadPSD reads "frequency value" rows and returns the value column.
func ReadPSD(r io.Reader) ([]float64, error) {
	cols, err := columns.ReadFloatColumns(r, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read PSD: %w", err)
	}
	return cols[1], nil
}

func readFrequencySeriesFile(fsys fsutil.FileSystem, path string) (FrequencySeries, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return FrequencySeries{}, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()
	s, err := ReadFrequencySeries(f)
	if err != nil {
		return FrequencySeries{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func readPSDFile(fsys fsutil.FileSystem, path string) ([]float64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PSD file: %w", err)
	}
	defer f.Close()
	psd, err := ReadPSD(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return psd, nil
}
