// Package report renders cumulative segment-length distributions, as PNG
// through gonum/plot and as standalone HTML through go-echarts.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/monitoring"
)

// Series is one labelled set of segment durations in seconds.
type Series struct {
	Label     string
	Durations []int64
}

// Figure is a cumulative duration plot of one or more series.
type Figure struct {
	Title string
	// MaxDuration drops durations above it when > 0.
	MaxDuration int64
	Series      []Series
}

// CumulativeXY returns the step points of the cumulative count of segments
// with duration <= x, evaluated at every (sorted) duration.
func CumulativeXY(durations []int64, maxdur int64) plotter.XYs {
	sorted := make([]int64, 0, len(durations))
	for _, d := range durations {
		if maxdur > 0 && d > maxdur {
			continue
		}
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	xys := make(plotter.XYs, 0, len(sorted))
	for i, d := range sorted {
		// equal durations collapse into one step
		if n := len(xys); n > 0 && xys[n-1].X == float64(d) {
			xys[n-1].Y = float64(i + 1)
			continue
		}
		xys = append(xys, plotter.XY{X: float64(d), Y: float64(i + 1)})
	}
	return xys
}

func (f Figure) build() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = "segment length"
	p.Y.Label.Text = "# segments"
	p.Legend.Top = true
	p.Legend.Left = true

	ymax := 0.0
	for i, s := range f.Series {
		xys := CumulativeXY(s.Durations, f.MaxDuration)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		c := plotutil.Color(i)
		line.Color = c
		line.Width = vg.Points(1)
		line.StepStyle = plotter.PostStep
		line.FillColor = withAlpha(c, 0x4c)
		p.Add(line)
		p.Legend.Add(s.Label, line)
		ymax = max(ymax, xys[len(xys)-1].Y)
	}
	p.Y.Min = 0
	if ymax > 0 {
		p.Y.Max = ymax
	}
	return p, nil
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}
}

// SavePNG writes the figure to path as a PNG image.
func (f Figure) SavePNG(fsys fsutil.FileSystem, path string) error {
	monitoring.Logf("[report] Plotting segment lengths distribution to file %s", path)
	p, err := f.build()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	out, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("save plot: %w", err)
	}
	return out.Close()
}

// SaveHTML writes the figure to path as a standalone go-echarts page.
func (f Figure) SaveHTML(fsys fsutil.FileSystem, path string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: fmt.Sprintf("series=%d", len(f.Series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "segment length (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "# segments", NameLocation: "middle", NameGap: 40}),
	)

	for _, s := range f.Series {
		xys := CumulativeXY(s.Durations, f.MaxDuration)
		data := make([]opts.LineData, 0, len(xys))
		for _, pt := range xys {
			data = append(data, opts.LineData{Value: []interface{}{pt.X, pt.Y}})
		}
		line.AddSeries(s.Label, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write chart %s: %w", path, err)
	}
	return nil
}
