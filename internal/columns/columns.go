// Package columns reads and writes the whitespace-delimited numeric text
// tables used for segment lists, trigger times, time slides, frequency series
// and PSDs.
//
// Blank lines and lines starting with '#' or '%' are skipped. Every data row
// must carry the same number of fields.
package columns

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedRow is returned (wrapped with the line number) for rows that
// have the wrong number of fields or a field that is not a number.
var ErrMalformedRow = errors.New("malformed row")

// maxLineBytes bounds a single text row; PSD and data files can carry long
// scientific-notation rows but never anything close to this.
const maxLineBytes = 1 << 20

// scan calls fn with the fields of every data row and its 1-based line number.
func scan(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	width := -1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' || text[0] == '%' {
			continue
		}
		fields := strings.Fields(text)
		if width < 0 {
			width = len(fields)
		} else if len(fields) != width {
			return fmt.Errorf("line %d: %w: expected %d fields, got %d", line, ErrMalformedRow, width, len(fields))
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	return nil
}

// parseInt accepts plain integers and integral floats such as "9.6e8".
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("non-integral value %q", s)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %q out of range", s)
	}
	return int64(f), nil
}

// ReadIntRows reads rows of exactly ncols integers.
func ReadIntRows(r io.Reader, ncols int) ([][]int64, error) {
	var rows [][]int64
	err := scan(r, func(line int, fields []string) error {
		if len(fields) != ncols {
			return fmt.Errorf("line %d: %w: expected %d fields, got %d", line, ErrMalformedRow, ncols, len(fields))
		}
		row := make([]int64, ncols)
		for i, f := range fields {
			v, err := parseInt(f)
			if err != nil {
				return fmt.Errorf("line %d: %w: %v", line, ErrMalformedRow, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadFloatColumns reads a table of at least ncols float columns and returns
// the first ncols of them column-major. Extra trailing columns are ignored.
func ReadFloatColumns(r io.Reader, ncols int) ([][]float64, error) {
	cols := make([][]float64, ncols)
	err := scan(r, func(line int, fields []string) error {
		if len(fields) < ncols {
			return fmt.Errorf("line %d: %w: expected at least %d fields, got %d", line, ErrMalformedRow, ncols, len(fields))
		}
		for i := 0; i < ncols; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return fmt.Errorf("line %d: %w: invalid float %q", line, ErrMalformedRow, fields[i])
			}
			cols[i] = append(cols[i], v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}

// WriteIntRows writes each row as space-separated integers.
func WriteIntRows(w io.Writer, rows [][]int64) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(strconv.FormatInt(v, 10)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteInts writes one integer per line.
func WriteInts(w io.Writer, values []int64) error {
	rows := make([][]int64, len(values))
	for i, v := range values {
		rows[i] = []int64{v}
	}
	return WriteIntRows(w, rows)
}
