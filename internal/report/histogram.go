package report

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// Histogram image size.
const (
	HistogramWidth  = 10 * vg.Inch
	HistogramHeight = 4 * vg.Inch
)

// HistogramPNG writes a PNG with the raw distribution of column on the left and
// the scaled one on the right. NaN and ±Inf values are dropped.
func HistogramPNG(w io.Writer, raw, scaled []float64, column string, bins int) error {
	const op = "report.HistogramPNG"
	if bins <= 0 {
		return errors.NewInvalidConfigError("bins", "must be positive", bins)
	}

	left, err := histogramPlot(op, raw, bins, fmt.Sprintf("%s (raw)", column))
	if err != nil {
		return err
	}
	right, err := histogramPlot(op, scaled, bins, fmt.Sprintf("%s (scaled)", column))
	if err != nil {
		return err
	}

	img := vgimg.New(HistogramWidth, HistogramHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      1,
		Cols:      2,
		PadX:      vg.Millimeter * 5,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{left, right}}
	canvases := plot.Align(plots, tiles, dc)
	left.Draw(canvases[0][0])
	right.Draw(canvases[0][1])

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write png")
	}
	return nil
}

func histogramPlot(op string, values []float64, bins int, title string) (*plot.Plot, error) {
	finite := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil, errors.NewInvalidInputError(op, title+": no finite values to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(finite, bins)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build histogram for %s", title)
	}
	p.Add(h)
	return p, nil
}
