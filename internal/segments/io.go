package segments

import (
	"fmt"
	"io"

	"github.com/gwprep/gwprep/internal/columns"
	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
)

// ErrMalformedRow is returned for segment rows that are not four integers.
var ErrMalformedRow = columns.ErrMalformedRow

// ReadList parses a 4-column "id start end length" segment table.
func ReadList(r io.Reader) (*List, error) {
	rows, err := columns.ReadIntRows(r, 4)
	if err != nil {
		return nil, err
	}
	segs := make([]Segment, len(rows))
	for i, row := range rows {
		segs[i] = Segment{ID: row[0], Start: row[1], End: row[2], Length: row[3]}
	}
	return NewList(segs), nil
}

// ReadFile reads a segment table from path.
func ReadFile(fsys fsutil.FileSystem, path string) (*List, error) {
	monitoring.Logf("[segments] Reading %s", path)
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment file %s: %w", path, err)
	}
	defer f.Close()

	l, err := ReadList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse segment file %s: %w", path, err)
	}
	return l, nil
}

// WriteText writes the list as a 4-column integer table.
func (l *List) WriteText(w io.Writer) error {
	rows := make([][]int64, len(l.segs))
	for i, s := range l.segs {
		rows[i] = s.Row()
	}
	return columns.WriteIntRows(w, rows)
}

// WriteFile writes l to path as a 4-column integer table.
func WriteFile(fsys fsutil.FileSystem, path string, l *List) error {
	monitoring.Logf("[segments] Printing segment list to file %s", path)
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create segment file %s: %w", path, err)
	}
	if err := l.WriteText(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write segment file %s: %w", path, err)
	}
	return f.Close()
}
