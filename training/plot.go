package training

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var skyBlue = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// SaveHistogram writes a PNG histogram of hydrophobic fractions to path. The
// image format follows the file extension.
func SaveHistogram(values []float64, bins int, path string) error {
	if len(values) == 0 {
		return errors.New("no values to plot")
	}
	p := plot.New()
	p.Title.Text = "Hydrophobicity Distribution (Training Data)"
	p.X.Label.Text = "Hydrophobic Fraction"
	p.Y.Label.Text = "Count"

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	hist.FillColor = skyBlue
	hist.LineStyle.Color = color.Black
	p.Add(hist)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
