package monitor

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// SavePlot renders the collected series as a line plot of value against
// seconds since the first sample. The format is inferred from the file
// extension (.png, .svg, .pdf).
func (m *Monitor) SavePlot(path string) error {
	data := m.Data()
	ticks := m.Ticks()
	if len(data) == 0 {
		return errors.NewValueError("Monitor.SavePlot", "no samples collected")
	}

	pts := make(plotter.XYs, len(data))
	origin := ticks[0]
	for i := range data {
		pts[i].X = ticks[i].Sub(origin).Seconds()
		pts[i].Y = data[i]
	}

	p := plot.New()
	p.Title.Text = m.name
	p.X.Label.Text = "seconds"
	p.Y.Label.Text = m.unit

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building line plot")
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.NewStorageError("Monitor.SavePlot", path, err)
	}
	return nil
}

// SaveSeriesPlot renders an arbitrary (x, y) series, used by the CLI to plot
// metric curves loaded from a result store.
func SaveSeriesPlot(path, title, xLabel, yLabel string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return errors.NewValueError("SaveSeriesPlot", "x and y lengths differ")
	}
	if len(xs) == 0 {
		return errors.NewValueError("SaveSeriesPlot", "empty series")
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "building line plot")
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.NewStorageError("SaveSeriesPlot", path, err)
	}
	return nil
}
