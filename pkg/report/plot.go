package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"cabgcompare/pkg/comparison"
)

// boxColors pairs one colour with each territory; pre and post boxes of a
// territory share it.
var boxColors = []color.Color{
	color.RGBA{R: 127, G: 255, B: 212, A: 255},
	color.RGBA{R: 244, G: 164, B: 96, A: 255},
	color.RGBA{R: 152, G: 251, B: 152, A: 255},
	color.RGBA{R: 224, G: 255, B: 255, A: 255},
	color.RGBA{R: 216, G: 191, B: 216, A: 255},
	color.RGBA{R: 230, G: 230, B: 250, A: 255},
	color.RGBA{R: 250, G: 128, B: 114, A: 255},
	color.RGBA{R: 255, G: 218, B: 185, A: 255},
}

// BoxPlot builds the pre/post MBF box plot. Series are expected in
// pre/post pairs; a series without samples keeps its slot but draws no box.
func BoxPlot(series []comparison.Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no territory has samples to plot")
	}
	p := plot.New()
	p.Title.Text = "Pre/Post CABG MBF"
	p.Y.Label.Text = "MBF (ml/min/100g)"

	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Label
		if len(s.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(s.Values))
		if err != nil {
			return nil, fmt.Errorf("box %s: %w", s.Label, err)
		}
		box.FillColor = boxColors[(i/2)%len(boxColors)]
		p.Add(box)
	}
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	return p, nil
}

// WriteBoxPlot renders BoxPlot(series) to path; the extension picks the
// image format.
func WriteBoxPlot(path string, series []comparison.Series) error {
	p, err := BoxPlot(series)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save box plot: %w", err)
	}
	return nil
}
