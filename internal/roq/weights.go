package roq

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

// Whiten drops the samples below fLow and divides the remaining data by the
// PSD. Samples whose real part becomes NaN are zeroed.
func Whiten(series FrequencySeries, psd []float64, fLow float64) (freq []float64, data []complex128, deltaF float64, err error) {
	if len(series.Data) != len(series.Freq) {
		return nil, nil, 0, fmt.Errorf("%d data samples for %d frequencies: %w", len(series.Data), len(series.Freq), ErrShapeMismatch)
	}
	if len(psd) != len(series.Data) {
		return nil, nil, 0, fmt.Errorf("PSD has %d samples, data has %d: %w", len(psd), len(series.Data), ErrShapeMismatch)
	}
	deltaF, err = series.DeltaF()
	if err != nil {
		return nil, nil, 0, err
	}
	if fLow < 0 || math.IsNaN(fLow) {
		return nil, nil, 0, fmt.Errorf("low frequency cutoff must be non-negative, got %g", fLow)
	}
	kmin := int(fLow / deltaF)
	if kmin >= len(series.Data) {
		return nil, nil, 0, fmt.Errorf("cutoff %g Hz is beyond the last sample: %w", fLow, ErrShapeMismatch)
	}

	freq = append([]float64(nil), series.Freq[kmin:]...)
	data = make([]complex128, len(freq))
	for k := range data {
		p := psd[kmin+k]
		v := series.Data[kmin+k]
		v = complex(real(v)/p, imag(v)/p)
		if math.IsNaN(real(v)) {
			v = 0
		}
		data[k] = v
	}
	return freq, data, deltaF, nil
}

// ShiftMatrix applies a time shift of tcs[j] to data, giving a
// [len(freq) x len(tcs)] matrix whose column j is data*exp(2πi f tcs[j]).
func ShiftMatrix(freq []float64, data []complex128, tcs []float64) cblas128.General {
	m := cblas128.General{
		Rows:   len(freq),
		Cols:   len(tcs),
		Stride: len(tcs),
		Data:   make([]complex128, len(freq)*len(tcs)),
	}
	for k, f := range freq {
		row := m.Data[k*m.Stride : (k+1)*m.Stride]
		for j, tc := range tcs {
			row[j] = data[k] * cmplx.Rect(1, 2*math.Pi*f*tc)
		}
	}
	return m
}

// BuildWeights projects the shifted data onto the reduced basis and maps the
// result through the inverse Vandermonde matrix:
//
//	E = basisᵀ · conj(data) · 4Δf
//	W = invVᵀ · E
//
// data is [nfreq x ntc], basis is [nfreq x nbasis] and invV is
// [nbasis x nbasis]; W is [nbasis x ntc].
func BuildWeights(data, basis, invV cblas128.General, deltaF float64) (cblas128.General, error) {
	if data.Rows != basis.Rows {
		return cblas128.General{}, fmt.Errorf("data has %d frequencies, basis has %d: %w", data.Rows, basis.Rows, ErrShapeMismatch)
	}
	if invV.Rows != basis.Cols || invV.Cols != basis.Cols {
		return cblas128.General{}, fmt.Errorf("invV is %dx%d, basis has %d elements: %w", invV.Rows, invV.Cols, basis.Cols, ErrShapeMismatch)
	}

	conj := cblas128.General{Rows: data.Rows, Cols: data.Cols, Stride: data.Cols, Data: make([]complex128, data.Rows*data.Cols)}
	for i := 0; i < data.Rows; i++ {
		for j := 0; j < data.Cols; j++ {
			conj.Data[i*conj.Stride+j] = cmplx.Conj(data.Data[i*data.Stride+j])
		}
	}

	nb, ntc := basis.Cols, data.Cols
	e := cblas128.General{Rows: nb, Cols: ntc, Stride: ntc, Data: make([]complex128, nb*ntc)}
	w := cblas128.General{Rows: nb, Cols: ntc, Stride: ntc, Data: make([]complex128, nb*ntc)}
	if ntc == 0 {
		return w, nil
	}
	cblas128.Gemm(blas.Trans, blas.NoTrans, complex(4*deltaF, 0), basis, conj, 0, e)
	cblas128.Gemm(blas.Trans, blas.NoTrans, 1, invV, e, 0, w)
	return w, nil
}
