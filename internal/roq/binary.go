package roq

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/blas/cblas128"
)

// Basis and inverse Vandermonde files are raw little-endian complex128
// arrays in row-major order: 8 bytes real part, 8 bytes imaginary part.
const complexSize = 16

// ReadComplexMatrix reads exactly rows*cols complex values from r.
func ReadComplexMatrix(r io.Reader, rows, cols int) (cblas128.General, error) {
	if rows <= 0 || cols <= 0 {
		return cblas128.General{}, fmt.Errorf("invalid matrix shape %dx%d: %w", rows, cols, ErrShapeMismatch)
	}
	n := rows * cols
	data := make([]complex128, n)
	br := bufio.NewReader(r)
	var buf [complexSize]byte
	for i := range data {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return cblas128.General{}, fmt.Errorf("expected %d complex values, file holds %d: %w", n, i, ErrShapeMismatch)
			}
			return cblas128.General{}, err
		}
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[:8]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:]))
		data[i] = complex(re, im)
	}
	if _, err := br.ReadByte(); err != io.EOF {
		if err != nil {
			return cblas128.General{}, err
		}
		return cblas128.General{}, fmt.Errorf("trailing bytes after %d complex values: %w", n, ErrShapeMismatch)
	}
	return cblas128.General{Rows: rows, Cols: cols, Stride: cols, Data: data}, nil
}

// WriteComplexMatrix writes m row-major in the same raw layout.
func WriteComplexMatrix(w io.Writer, m cblas128.General) error {
	bw := bufio.NewWriter(w)
	var buf [complexSize]byte
	for i := 0; i < m.Rows; i++ {
		row := m.Data[i*m.Stride : i*m.Stride+m.Cols]
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(real(v)))
			binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(imag(v)))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteGridSize writes the number of tc grid points as a single int64.
func WriteGridSize(w io.Writer, n int) error {
	return binary.Write(w, binary.LittleEndian, int64(n))
}
